package store

import (
	"strings"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
)

// Query narrows the book list. Zero fields do not filter.
type Query struct {
	// Text matches title, author or genre, case-insensitively.
	Text   string
	Genre  string
	Author string
	// MinRating excludes unrated books when set.
	MinRating float64
}

// Filter returns the current books matching q, in list order.
func (c *Catalog) Filter(q Query) []models.Book {
	return FilterBooks(c.Books(), q)
}

func FilterBooks(books []models.Book, q Query) []models.Book {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	genre := strings.TrimSpace(q.Genre)
	author := strings.TrimSpace(q.Author)

	out := []models.Book{}
	for _, b := range books {
		if text != "" &&
			!strings.Contains(strings.ToLower(b.Title), text) &&
			!strings.Contains(strings.ToLower(b.Author), text) &&
			!strings.Contains(strings.ToLower(b.Genre), text) {
			continue
		}
		if genre != "" && strings.TrimSpace(b.Genre) != genre {
			continue
		}
		if author != "" && strings.TrimSpace(b.Author) != author {
			continue
		}
		if q.MinRating > 0 && (b.Rating == 0 || b.Rating < q.MinRating) {
			continue
		}
		out = append(out, b)
	}
	return out
}
