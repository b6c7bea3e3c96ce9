package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/bookshelf/internal/book"
)

func sampleDraft() book.Draft {
	return book.Draft{
		ISBN:      "9783864906466",
		Title:     "Angular",
		Author:    "Ferdinand Malcher",
		Publisher: "dpunkt.verlag",
		NumPages:  572,
		Price:     "36.90 EUR",
		Cover:     "https://example.com/cover.png",
		Abstract:  "A practical introduction.",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, Options{RequestsPerSecond: 1000})
	require.NoError(t, err)
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4730", u.String())

	u, err = parseBaseURL("example.com:9000/api/books/?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "example.com:9000", u.Host)
	assert.Equal(t, "/api", u.Path)
	assert.Empty(t, u.RawQuery)
	assert.Empty(t, u.Fragment)

	_, err = parseBaseURL("http://")
	assert.Error(t, err)
}

func TestFetchPage_EncodesQueryAndReadsTotal(t *testing.T) {
	var got url.Values
	var path, requestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		path = r.URL.Path
		requestID = r.Header.Get("X-Request-ID")
		w.Header().Set("X-Total-Count", "21")
		_ = json.NewEncoder(w).Encode([]book.Book{{ID: "1", Draft: sampleDraft()}})
	})

	page, err := c.FetchPage(testContext(t), 3, 10, "  angular ")
	require.NoError(t, err)

	assert.Equal(t, "/books", path)
	assert.Equal(t, "3", got.Get("_page"))
	assert.Equal(t, "10", got.Get("_limit"))
	assert.Equal(t, "angular", got.Get("q"))
	assert.NotEmpty(t, requestID)
	assert.Equal(t, 21, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, book.ID("1"), page.Items[0].ID)
}

func TestFetchPage_OmitsEmptyTerm(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("X-Total-Count", "0")
		_, _ = w.Write([]byte("[]"))
	})

	page, err := c.FetchPage(testContext(t), 1, 10, "   ")
	require.NoError(t, err)
	assert.False(t, got.Has("q"))
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
}

func TestFetchPage_EstimatesTotalWithoutHeader(t *testing.T) {
	items := make([]book.Book, 10)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := 10
		if r.URL.Query().Get("_page") == "4" {
			n = 3
		}
		_ = json.NewEncoder(w).Encode(items[:n])
	})

	short, err := c.FetchPage(testContext(t), 4, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 33, short.Total)

	full, err := c.FetchPage(testContext(t), 2, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 21, full.Total, "a full page keeps the next page reachable")
}

func TestEstimateTotal(t *testing.T) {
	assert.Equal(t, 0, estimateTotal(1, 10, 0))
	assert.Equal(t, 7, estimateTotal(1, 10, 7))
	assert.Equal(t, 11, estimateTotal(1, 10, 10))
	assert.Equal(t, 25, estimateTotal(3, 10, 5))
}

func TestFetchPage_ServerErrorPropagatesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchPage(testContext(t), 1, 10, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServer))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, err.Error(), "returned status 500")
}

func TestFetchPage_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(server.URL, Options{RequestsPerSecond: 1000})
	require.NoError(t, err)
	server.Close()

	_, err = c.FetchPage(testContext(t), 1, 10, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestFetchPage_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not-json"))
	})
	_, err := c.FetchPage(testContext(t), 1, 10, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestFetchByISBN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("isbn") == "9783864906466" {
			_ = json.NewEncoder(w).Encode([]book.Book{{ID: "4", Draft: sampleDraft()}})
			return
		}
		_, _ = w.Write([]byte("[]"))
	})

	b, err := c.FetchByISBN(testContext(t), "9783864906466")
	require.NoError(t, err)
	assert.Equal(t, book.ID("4"), b.ID)
	assert.Equal(t, "Angular", b.Title)

	_, err = c.FetchByISBN(testContext(t), "0000")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Book not found", Message(err))

	_, err = c.FetchByISBN(testContext(t), "  ")
	assert.Error(t, err)
}

func TestCreate_SendsDraftWithoutIdentity(t *testing.T) {
	var body map[string]any
	var method, contentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":99,"userId":1,"isbn":"9783864906466","title":"Angular"}`))
	})

	draft := sampleDraft()
	draft.Title = "  Angular "
	created, err := c.Create(testContext(t), draft)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.NotContains(t, body, "id")
	assert.NotContains(t, body, "userId")
	assert.Equal(t, "Angular", body["title"])
	assert.Equal(t, book.ID("99"), created.ID)
	assert.Equal(t, book.ID("1"), created.UserID)
}

func TestCreate_RejectsInvalidDraftWithoutRequest(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.Create(testContext(t), book.Draft{Title: "only a title"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	var verrs book.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, "Invalid book data. Please check all fields.", Message(err))
}

func TestCreate_MapsConflicts(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"conflict status", http.StatusConflict, ""},
		{"duplicate id", http.StatusInternalServerError, `{"error":"Error: Insert failed, duplicate id"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Create(testContext(t), sampleDraft())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConflict))
			assert.Contains(t, Message(err), "may already exist")
		})
	}
}

func TestCreate_BadRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.Create(testContext(t), sampleDraft())
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestUpdate_PutsToIdentity(t *testing.T) {
	var method, path string
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write(raw)
	})

	updated, err := c.Update(testContext(t), "12", book.Book{UserID: "3", Draft: sampleDraft()})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/books/12", path)
	assert.EqualValues(t, 12, body["id"])
	assert.EqualValues(t, 3, body["userId"])
	assert.Equal(t, book.ID("12"), updated.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Update(testContext(t), "12", book.Book{Draft: sampleDraft()})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Update(testContext(t), "", book.Book{Draft: sampleDraft()})
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	var limit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("_limit")
		_, _ = w.Write([]byte("[]"))
	})
	require.NoError(t, c.Ping(testContext(t)))
	assert.Equal(t, "1", limit)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Cannot reach the catalog. Please try again.", Message(ErrNetwork))
	assert.Equal(t, "Server error: Bad Gateway. Please try again.", Message(&APIError{Op: "x", Status: http.StatusBadGateway}))
	assert.Equal(t, "The ISBN of an existing book cannot be changed.", Message(book.ErrISBNChanged))
	assert.Equal(t, "Something went wrong. Please try again.", Message(errors.New("odd")))
}

func TestBodyKeys(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com/books", nil)
	require.NoError(t, err)
	assert.Nil(t, bodyKeys(req))

	payload, err := json.Marshal(sampleDraft())
	require.NoError(t, err)
	req, err = http.NewRequest(http.MethodPost, "http://example.com/books", bytes.NewReader(payload))
	require.NoError(t, err)
	keys := bodyKeys(req)
	assert.Contains(t, keys, "isbn")
	assert.NotContains(t, keys, "id")
}
