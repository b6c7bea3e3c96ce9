// Package catalog provides an HTTP client for a json-server style books API.
//
// # Overview
//
// The client reads paged and filtered slices of the books collection, looks
// single records up by ISBN and creates or replaces records. Views depend on
// the Service interface so they can be exercised against fakes.
//
// # Client Usage
//
//	client, err := catalog.NewClient("http://localhost:4730", catalog.Options{})
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	page, err := client.FetchPage(ctx, 1, 10, "angular")
//	if err != nil {
//		log.Printf("fetch failed: %v", err)
//	}
//
// # API Endpoints
//
//   - GET /books?_page=N&_limit=M&q=term: one page, total in X-Total-Count
//   - GET /books?isbn=X: lookup by ISBN (zero or one match)
//   - POST /books: create from a Draft (never carries id or userId)
//   - PUT /books/{id}: replace the record with that identity
//
// The api_url may be given with or without scheme and with or without the
// trailing /books segment.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Wait on a token bucket limiter (golang.org/x/time/rate)
//   - Carry a fresh X-Request-ID (google/uuid)
//   - Are logged with method, URL, status and duration by loggingTransport
//
// Write requests additionally log their top-level body keys and whether id
// or userId were present, which makes accidental identity leaks visible.
//
// # Missing Totals
//
// When X-Total-Count is absent or malformed the total is estimated from the
// page that came back: exact for a short page, and one past the known items
// for a full page so the next page stays reachable.
//
// # Error Handling
//
// Responses with status 400 or above become *APIError. Its Unwrap maps the
// status onto ErrNotFound, ErrConflict, ErrValidation or ErrServer, so callers
// test with errors.Is. Transport failures wrap ErrNetwork. Message renders any
// of these as the sentence shown to the user.
package catalog
