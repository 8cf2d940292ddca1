package store

import (
	"slices"
	"strings"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
)

type facetCache struct {
	valid   bool
	version uint64
	genres  []string
	authors []string
}

// Genres returns the distinct genres of the current books in first-seen
// order.
func (c *Catalog) Genres() []string {
	return slices.Clone(c.currentFacets().genres)
}

// Authors returns the distinct authors of the current books in first-seen
// order.
func (c *Catalog) Authors() []string {
	return slices.Clone(c.currentFacets().authors)
}

func (c *Catalog) currentFacets() facetCache {
	c.facetMu.Lock()
	defer c.facetMu.Unlock()

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.facets.valid && c.facets.version == c.booksVersion {
		return c.facets
	}
	c.facets = facetCache{
		valid:   true,
		version: c.booksVersion,
		genres:  distinct(c.books, func(b models.Book) string { return b.Genre }),
		authors: distinct(c.books, func(b models.Book) string { return b.Author }),
	}
	return c.facets
}

func distinct(books []models.Book, field func(models.Book) string) []string {
	seen := make(map[string]struct{}, len(books))
	out := []string{}
	for _, b := range books {
		v := strings.TrimSpace(field(b))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
