package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrISBNChanged is returned when an edit tries to replace a record's ISBN.
var ErrISBNChanged = errors.New("isbn cannot be changed")

// ID is the server-assigned identity of a record. json-server hands out
// numbers or strings depending on its version, so both are accepted.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes all-digit ids as numbers so numeric stores keep their key type.
func (id ID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s != "" && isDigits(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func (id ID) String() string { return string(id) }

func isDigits(s string) bool {
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Draft is a book without its server-assigned identity. It is the payload
// for create requests and never carries id or userId.
type Draft struct {
	ISBN      string `json:"isbn" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Subtitle  string `json:"subtitle,omitempty"`
	Author    string `json:"author" validate:"required"`
	Publisher string `json:"publisher" validate:"required"`
	NumPages  int    `json:"numPages" validate:"min=1"`
	Price     string `json:"price" validate:"required"`
	Cover     string `json:"cover" validate:"required,http_url"`
	Abstract  string `json:"abstract" validate:"required"`
}

// Normalize returns a copy with surrounding whitespace removed from every text field.
func (d Draft) Normalize() Draft {
	d.ISBN = strings.TrimSpace(d.ISBN)
	d.Title = strings.TrimSpace(d.Title)
	d.Subtitle = strings.TrimSpace(d.Subtitle)
	d.Author = strings.TrimSpace(d.Author)
	d.Publisher = strings.TrimSpace(d.Publisher)
	d.Price = strings.TrimSpace(d.Price)
	d.Cover = strings.TrimSpace(d.Cover)
	d.Abstract = strings.TrimSpace(d.Abstract)
	return d
}

// Book is a catalog record as stored by the backend.
type Book struct {
	ID ID `json:"id"`
	Draft
	UserID ID `json:"userId,omitempty"`
}

// WithDraft applies edited fields to b, keeping its identity. The ISBN is
// fixed once a record exists.
func (b Book) WithDraft(d Draft) (Book, error) {
	if strings.TrimSpace(d.ISBN) != b.ISBN {
		return Book{}, fmt.Errorf("%w: %q -> %q", ErrISBNChanged, b.ISBN, d.ISBN)
	}
	b.Draft = d.Normalize()
	return b, nil
}

// DisplayTitle joins title and subtitle.
func (b Book) DisplayTitle() string {
	if b.Subtitle == "" {
		return b.Title
	}
	return b.Title + ": " + b.Subtitle
}
