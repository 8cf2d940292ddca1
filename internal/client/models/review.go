package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// ReviewAuthor is the review's userId field. The server sends it either
// populated ({"_id","fullName"}) or as a bare id string.
type ReviewAuthor struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName,omitempty"`
}

func (a *ReviewAuthor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ReviewAuthor{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*a = ReviewAuthor{ID: id}
		return nil
	}

	type plain ReviewAuthor
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = ReviewAuthor(p)
	return nil
}

// Review is a user review of a book. Likes and Dislikes hold user ids.
type Review struct {
	ID        string       `json:"_id"`
	BookID    string       `json:"bookId"`
	Author    ReviewAuthor `json:"userId"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	Likes     []string     `json:"likes"`
	Dislikes  []string     `json:"dislikes"`
}

// AuthorName returns the reviewer's name, or "Anonymous" when the server
// did not populate it.
func (r Review) AuthorName() string {
	if r.Author.FullName == "" {
		return "Anonymous"
	}
	return r.Author.FullName
}

func (r Review) LikedBy(userID string) bool {
	return userID != "" && slices.Contains(r.Likes, userID)
}

func (r Review) DislikedBy(userID string) bool {
	return userID != "" && slices.Contains(r.Dislikes, userID)
}

// Suggestion is one search-suggestion term from /search/.
type Suggestion struct {
	Text string `json:"text"`
}
