package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/five82/bookshelf/internal/book"
)

// Service is the book data contract used by the views. It is implemented
// by *Client and can be faked in tests.
type Service interface {
	FetchPage(ctx context.Context, page, pageSize int, term string) (Page, error)
	FetchByISBN(ctx context.Context, isbn string) (book.Book, error)
	Create(ctx context.Context, draft book.Draft) (book.Book, error)
	Update(ctx context.Context, id book.ID, b book.Book) (book.Book, error)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Page is one page of a filtered listing. Total counts the whole filtered
// set, not just Items.
type Page struct {
	Items []book.Book
	Total int
}

// Client talks to a json-server style books collection.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// Options tune a Client. Zero values use defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Transport         http.RoundTripper
}

const (
	defaultAPIURL     = "http://localhost:4730"
	defaultUserAgent  = "bookshelf/0.1"
	defaultTimeout    = 10 * time.Second
	defaultRPS        = 10
	totalCountHeader  = "X-Total-Count"
	requestIDHeader   = "X-Request-ID"
	maxErrorBodyBytes = 4 << 10
	collectionPath    = "books"
)

// NewClient builds a Client for the API rooted at apiURL.
func NewClient(apiURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	next := opts.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &loggingTransport{next: next},
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPage retrieves one page of books, optionally filtered by a full-text term.
func (c *Client) FetchPage(ctx context.Context, page, pageSize int, term string) (Page, error) {
	if c == nil {
		return Page{}, fmt.Errorf("client is nil")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return Page{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	values := url.Values{}
	values.Set("_page", strconv.Itoa(page))
	values.Set("_limit", strconv.Itoa(pageSize))
	if q := strings.TrimSpace(term); q != "" {
		values.Set("q", q)
	}

	var items []book.Book
	header, err := c.do(ctx, "fetch page", http.MethodGet, c.collectionURL("", values), nil, &items)
	if err != nil {
		return Page{}, err
	}
	total, ok := parseTotal(header.Get(totalCountHeader))
	if !ok {
		total = estimateTotal(page, pageSize, len(items))
		log.Printf("catalog: %s header missing on page %d, estimating total as %d", totalCountHeader, page, total)
	}
	return Page{Items: items, Total: total}, nil
}

// FetchByISBN looks a single book up by ISBN. The store keys records by id,
// so this filters the collection and expects zero or one match.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (book.Book, error) {
	if c == nil {
		return book.Book{}, fmt.Errorf("client is nil")
	}
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return book.Book{}, fmt.Errorf("isbn required")
	}
	values := url.Values{}
	values.Set("isbn", isbn)

	var items []book.Book
	if _, err := c.do(ctx, "fetch book", http.MethodGet, c.collectionURL("", values), nil, &items); err != nil {
		return book.Book{}, err
	}
	if len(items) == 0 {
		return book.Book{}, fmt.Errorf("book %s: %w", isbn, ErrNotFound)
	}
	return items[0], nil
}

// Create validates draft and posts it. The server assigns id and userId.
func (c *Client) Create(ctx context.Context, draft book.Draft) (book.Book, error) {
	if c == nil {
		return book.Book{}, fmt.Errorf("client is nil")
	}
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return book.Book{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var created book.Book
	if _, err := c.do(ctx, "create book", http.MethodPost, c.collectionURL("", nil), draft, &created); err != nil {
		return book.Book{}, err
	}
	return created, nil
}

// Update replaces the record with identity id.
func (c *Client) Update(ctx context.Context, id book.ID, b book.Book) (book.Book, error) {
	if c == nil {
		return book.Book{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id.String()) == "" {
		return book.Book{}, fmt.Errorf("book id required")
	}
	b.ID = id
	b.Draft = b.Draft.Normalize()
	if err := b.Draft.Validate(); err != nil {
		return book.Book{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var updated book.Book
	if _, err := c.do(ctx, "update book", http.MethodPut, c.collectionURL(id.String(), nil), b, &updated); err != nil {
		return book.Book{}, err
	}
	return updated, nil
}

// Ping checks that the collection endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("_limit", "1")
	_, err := c.do(ctx, "ping", http.MethodGet, c.collectionURL("", values), nil, nil)
	return err
}

func (c *Client) collectionURL(id string, values url.Values) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + collectionPath
	if id != "" {
		u.Path += "/" + url.PathEscape(id)
	}
	if len(values) > 0 {
		u.RawQuery = values.Encode()
	}
	return &u
}

func (c *Client) do(ctx context.Context, op, method string, reqURL *url.URL, body, dest any) (http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &APIError{Op: op, Status: resp.StatusCode, Body: string(raw)}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: decode response: empty body", op)
		}
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return resp.Header, nil
}

func parseTotal(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// estimateTotal derives a total when the server sends no count. It is exact
// for a short page and otherwise a lower bound that keeps one more page reachable.
func estimateTotal(page, pageSize, n int) int {
	total := (page-1)*pageSize + n
	if n >= pageSize {
		total++
	}
	return total
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if strings.HasSuffix(u.Path, "/"+collectionPath) {
		u.Path = strings.TrimSuffix(u.Path, "/"+collectionPath)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
