package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string      `json:"token"`
	UserData models.User `json:"userData"`
}

type userResponse struct {
	UserData models.User `json:"userData"`
}

type suggestionsResponse struct {
	// sic: the server's field name
	Data []models.Suggestion `json:"searchSuggessionData"`
}

type booksResponse struct {
	BookData []models.Book `json:"bookData"`
}

type bookResponse struct {
	Message  string      `json:"message"`
	BookData models.Book `json:"bookData"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

type reviewsResponse struct {
	ReviewData []models.Review `json:"reviewData"`
}

type reviewRequest struct {
	Content string `json:"content"`
}

type reviewResponse struct {
	ReviewData models.Review `json:"reviewData"`
}

func bookPath(prefix, id string) string {
	return prefix + url.PathEscape(id)
}

// Login exchanges credentials for a bearer token and the account record.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, models.User, error) {
	var resp loginResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", models.User{}, err
	}
	return resp.Token, resp.UserData, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) error {
	return c.Do(ctx, http.MethodPost, "/auth/register", reg, nil)
}

// CheckAuth validates the attached credential and returns its account.
func (c *HTTPClient) CheckAuth(ctx context.Context) (models.User, error) {
	var resp userResponse
	if err := c.Do(ctx, http.MethodGet, "/auth/check", nil, &resp); err != nil {
		return models.User{}, err
	}
	return resp.UserData, nil
}

func (c *HTTPClient) SearchSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	var resp suggestionsResponse
	if err := c.Do(ctx, http.MethodGet, "/search/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) ListBooks(ctx context.Context) ([]models.Book, error) {
	var resp booksResponse
	if err := c.Do(ctx, http.MethodGet, "/book/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.BookData, nil
}

func (c *HTTPClient) CreateBook(ctx context.Context, in models.BookInput) error {
	return c.Do(ctx, http.MethodPost, "/book/", in, nil)
}

func (c *HTTPClient) GetBook(ctx context.Context, id string) (models.Book, error) {
	var resp bookResponse
	if err := c.Do(ctx, http.MethodGet, bookPath("/book/", id), nil, &resp); err != nil {
		return models.Book{}, err
	}
	return resp.BookData, nil
}

func (c *HTTPClient) UpdateBook(ctx context.Context, id string, in models.BookInput) error {
	return c.Do(ctx, http.MethodPut, bookPath("/book/", id), in, nil)
}

// DeleteBook removes a book and returns the server's confirmation message.
func (c *HTTPClient) DeleteBook(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	if err := c.Do(ctx, http.MethodDelete, bookPath("/book/", id), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RateBook records a star rating and returns the recomputed book together
// with the server's message.
func (c *HTTPClient) RateBook(ctx context.Context, id string, stars int) (models.Book, string, error) {
	var resp bookResponse
	if err := c.Do(ctx, http.MethodPut, bookPath("/book/rate/", id), ratingRequest{Rating: stars}, &resp); err != nil {
		return models.Book{}, "", err
	}
	return resp.BookData, resp.Message, nil
}

func (c *HTTPClient) ListReviews(ctx context.Context, bookID string) ([]models.Review, error) {
	var resp reviewsResponse
	if err := c.Do(ctx, http.MethodGet, bookPath("/review/", bookID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.ReviewData, nil
}

func (c *HTTPClient) AddReview(ctx context.Context, bookID, content string) (models.Review, error) {
	var resp reviewResponse
	if err := c.Do(ctx, http.MethodPost, bookPath("/review/", bookID), reviewRequest{Content: content}, &resp); err != nil {
		return models.Review{}, err
	}
	return resp.ReviewData, nil
}

func (c *HTTPClient) LikeReview(ctx context.Context, reviewID string) error {
	return c.Do(ctx, http.MethodPut, bookPath("/review/like/", reviewID), nil, nil)
}

func (c *HTTPClient) DislikeReview(ctx context.Context, reviewID string) error {
	return c.Do(ctx, http.MethodPut, bookPath("/review/dislike/", reviewID), nil, nil)
}
