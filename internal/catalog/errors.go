package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/five82/bookshelf/internal/book"
)

// Sentinel errors for the failure classes callers react to.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("invalid request")
	ErrServer     = errors.New("server error")
	ErrNetwork    = errors.New("network error")
)

// APIError is returned for any response with a status of 400 or above.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: api returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: api returned status %d: %s", e.Op, e.Status, truncate(body, 200))
}

// Unwrap maps the status to one of the sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return ErrValidation
	case e.Status >= 500 && strings.Contains(strings.ToLower(e.Body), "duplicate id"):
		// json-server reports an ISBN collision on a keyed store this way.
		return ErrConflict
	default:
		return ErrServer
	}
}

// Message turns err into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var verrs book.ValidationErrors
	var apiErr *APIError
	switch {
	case errors.As(err, &verrs), errors.Is(err, ErrValidation):
		return "Invalid book data. Please check all fields."
	case errors.Is(err, book.ErrISBNChanged):
		return "The ISBN of an existing book cannot be changed."
	case errors.Is(err, ErrNotFound):
		return "Book not found"
	case errors.Is(err, ErrConflict):
		return "A book with this ISBN may already exist. Please check if the ISBN is unique."
	case errors.Is(err, ErrNetwork):
		return "Cannot reach the catalog. Please try again."
	case errors.As(err, &apiErr):
		detail := strings.TrimSpace(apiErr.Body)
		if detail == "" {
			detail = http.StatusText(apiErr.Status)
		}
		return fmt.Sprintf("Server error: %s. Please try again.", truncate(detail, 80))
	default:
		return "Something went wrong. Please try again."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
