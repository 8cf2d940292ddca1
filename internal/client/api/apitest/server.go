// Package apitest runs an in-memory bookstore API over httptest for tests of
// the HTTP adapter and the stores.
//
// The fake follows the remote API's envelope and routes. Tokens are HS256
// JWTs with an exp claim; catalog writes require an admin account. Any
// route can be made to fail, reject, or block with Fail, Reject and
// HoldNext.
package apitest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookstore/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Route names accepted by Fail, Reject, HoldNext and Hits.
const (
	RouteLogin       = "login"
	RouteRegister    = "register"
	RouteCheck       = "check"
	RouteSuggestions = "suggestions"
	RouteListBooks   = "listBooks"
	RouteCreateBook  = "createBook"
	RouteGetBook     = "getBook"
	RouteUpdateBook  = "updateBook"
	RouteDeleteBook  = "deleteBook"
	RouteRateBook    = "rateBook"
	RouteListReviews = "listReviews"
	RouteAddReview   = "addReview"
	RouteLike        = "like"
	RouteDislike     = "dislike"
)

type account struct {
	user     models.User
	password string
}

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	secret []byte

	mu          sync.Mutex
	nextID      int
	accounts    map[string]*account // by email
	revoked     map[string]bool
	books       []models.Book
	reviews     []models.Review
	ratings     map[string]map[string]int // bookID -> userID -> stars
	suggestions []models.Suggestion

	hits        map[string]int
	authHeaders []string
	failures    map[string]failure
	holds       map[string][]chan struct{}
}

// New starts a fake API and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:   []byte("apitest-secret"),
		accounts: make(map[string]*account),
		revoked:  make(map[string]bool),
		ratings:  make(map[string]map[string]int),
		hits:     make(map[string]int),
		failures: make(map[string]failure),
		holds:    make(map[string][]chan struct{}),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.route(RouteLogin, s.handleLogin))
			r.Post("/register", s.route(RouteRegister, s.handleRegister))
			r.Get("/check", s.route(RouteCheck, s.handleCheck))
		})
		r.Get("/search/", s.route(RouteSuggestions, s.handleSuggestions))
		r.Route("/book", func(r chi.Router) {
			r.Get("/", s.route(RouteListBooks, s.handleListBooks))
			r.Post("/", s.route(RouteCreateBook, s.admin(s.handleCreateBook)))
			r.Get("/{id}", s.route(RouteGetBook, s.handleGetBook))
			r.Put("/{id}", s.route(RouteUpdateBook, s.admin(s.handleUpdateBook)))
			r.Delete("/{id}", s.route(RouteDeleteBook, s.admin(s.handleDeleteBook)))
			r.Put("/rate/{id}", s.route(RouteRateBook, s.authed(s.handleRateBook)))
		})
		r.Route("/review", func(r chi.Router) {
			r.Get("/{bookId}", s.route(RouteListReviews, s.handleListReviews))
			r.Post("/{bookId}", s.route(RouteAddReview, s.authed(s.handleAddReview)))
			r.Put("/like/{reviewId}", s.route(RouteLike, s.authed(s.handleVote(true))))
			r.Put("/dislike/{reviewId}", s.route(RouteDislike, s.authed(s.handleVote(false))))
		})
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to hand to api.NewHTTPClient.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser registers an account directly, bypassing /auth/register.
func (s *Server) AddUser(fullName, email, password string, admin bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(fullName, email, password, admin)
}

func (s *Server) addUserLocked(fullName, email, password string, admin bool) models.User {
	s.nextID++
	u := models.User{
		ID:       fmt.Sprintf("user-%d", s.nextID),
		FullName: fullName,
		Email:    email,
		IsAdmin:  admin,
	}
	s.accounts[strings.ToLower(email)] = &account{user: u, password: password}
	return u
}

// IssueToken mints a token for the account with the given email.
func (s *Server) IssueToken(email string, ttl time.Duration) string {
	s.mu.Lock()
	acc := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	if acc == nil {
		return ""
	}
	return s.sign(acc.user.ID, ttl)
}

func (s *Server) sign(userID string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Revoke makes token fail every subsequent auth check.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
}

// SeedBook stores b, assigning an id when it has none.
func (s *Server) SeedBook(b models.Book) models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		s.nextID++
		b.ID = fmt.Sprintf("book-%d", s.nextID)
	}
	s.books = append(s.books, b)
	return b
}

// SeedReview stores a review by the account with authorEmail.
func (s *Server) SeedReview(bookID, authorEmail, content string) models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	var author models.ReviewAuthor
	if acc := s.accounts[strings.ToLower(authorEmail)]; acc != nil {
		author = models.ReviewAuthor{ID: acc.user.ID, FullName: acc.user.FullName}
	}
	return s.addReviewLocked(bookID, author, content)
}

func (s *Server) addReviewLocked(bookID string, author models.ReviewAuthor, content string) models.Review {
	s.nextID++
	rv := models.Review{
		ID:        fmt.Sprintf("review-%d", s.nextID),
		BookID:    bookID,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Likes:     []string{},
		Dislikes:  []string{},
	}
	s.reviews = append(s.reviews, rv)
	return rv
}

func (s *Server) SetSuggestions(texts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = s.suggestions[:0]
	for _, t := range texts {
		s.suggestions = append(s.suggestions, models.Suggestion{Text: t})
	}
}

// Fail makes every request to route answer with status and message until
// Restore is called.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	s.failures[route] = failure{status: status, message: message}
	s.mu.Unlock()
}

// Reject makes route answer 200 with success:false.
func (s *Server) Reject(route, message string) {
	s.Fail(route, http.StatusOK, message)
}

func (s *Server) Restore(route string) {
	s.mu.Lock()
	delete(s.failures, route)
	s.mu.Unlock()
}

// HoldNext blocks the next request to route until release is called or the
// client gives up.
func (s *Server) HoldNext(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = append(s.holds[route], gate)
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Hits reports how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// AuthHeaders returns the Authorization header of every request in arrival
// order; "" marks a request without one.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.authHeaders)
}

func (s *Server) Books() []models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.books)
}

func (s *Server) Review(id string) (models.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.reviewIndexLocked(id)
	if i < 0 {
		return models.Review{}, false
	}
	return s.reviews[i], true
}

func (s *Server) route(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[name]++
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		f, failing := s.failures[name]
		var gate chan struct{}
		if q := s.holds[name]; len(q) > 0 {
			gate, s.holds[name] = q[0], q[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			writeJSON(w, f.status, envelope(false, f.message, nil))
			return
		}
		h(w, r)
	}
}

type userHandler func(w http.ResponseWriter, r *http.Request, u models.User)

func (s *Server) authed(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.userFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, envelope(false, "Unauthorized", nil))
			return
		}
		h(w, r, u)
	}
}

func (s *Server) admin(h userHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, u models.User) {
		if !u.IsAdmin {
			writeJSON(w, http.StatusForbidden, envelope(false, "Admin access required", nil))
			return
		}
		h(w, r, u)
	})
}

func (s *Server) userFromRequest(r *http.Request) (models.User, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return models.User{}, false
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[raw] {
		return models.User{}, false
	}
	for _, acc := range s.accounts {
		if acc.user.ID == claims.Subject {
			return acc.user, true
		}
	}
	return models.User{}, false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	acc := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if acc == nil || acc.password != req.Password {
		writeJSON(w, http.StatusBadRequest, envelope(false, "Invalid email or password", nil))
		return
	}

	writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{
		"token":    s.sign(acc.user.ID, time.Hour),
		"userData": userPayload(acc.user),
	}))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, envelope(false, "All fields are required", nil))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		writeJSON(w, http.StatusOK, envelope(false, "User already exists", nil))
		return
	}
	s.addUserLocked(req.FullName, req.Email, req.Password, false)
	writeJSON(w, http.StatusCreated, envelope(true, "User registered successfully", nil))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	u, ok := s.userFromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope(false, "Unauthorized", nil))
		return
	}
	writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{"userData": userPayload(u)}))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	data := slices.Clone(s.suggestions)
	s.mu.Unlock()
	if data == nil {
		data = []models.Suggestion{}
	}
	writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{"searchSuggessionData": data}))
}

func (s *Server) handleListBooks(w http.ResponseWriter, _ *http.Request) {
	books := s.Books()
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{"bookData": books}))
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request, _ models.User) {
	var in models.BookInput
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" || in.Price < 0 {
		writeJSON(w, http.StatusBadRequest, envelope(false, "Invalid book", nil))
		return
	}
	b := s.SeedBook(in.Book())
	writeJSON(w, http.StatusCreated, envelope(true, "Book created successfully", map[string]any{"bookData": b}))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	i := s.bookIndexLocked(id)
	var b models.Book
	if i >= 0 {
		b = s.books[i]
	}
	s.mu.Unlock()
	if i < 0 {
		writeJSON(w, http.StatusNotFound, envelope(false, "Book not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{"bookData": b}))
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request, _ models.User) {
	var in models.BookInput
	if !decodeBody(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndexLocked(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, envelope(false, "Book not found", nil))
		return
	}
	updated := in.Book()
	updated.ID = id
	updated.Rating = s.books[i].Rating
	updated.RatingNumber = s.books[i].RatingNumber
	s.books[i] = updated
	writeJSON(w, http.StatusOK, envelope(true, "Book updated", map[string]any{"bookData": updated}))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request, _ models.User) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndexLocked(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, envelope(false, "Book not found", nil))
		return
	}
	s.books = slices.Delete(s.books, i, i+1)
	s.reviews = slices.DeleteFunc(s.reviews, func(rv models.Review) bool { return rv.BookID == id })
	delete(s.ratings, id)
	writeJSON(w, http.StatusOK, envelope(true, "Book deleted successfully", nil))
}

func (s *Server) handleRateBook(w http.ResponseWriter, r *http.Request, u models.User) {
	var req struct {
		Rating int `json:"rating"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, envelope(false, "Rating must be between 1 and 5", nil))
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.bookIndexLocked(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, envelope(false, "Book not found", nil))
		return
	}
	if s.ratings[id] == nil {
		s.ratings[id] = make(map[string]int)
	}
	s.ratings[id][u.ID] = req.Rating

	total := 0
	for _, v := range s.ratings[id] {
		total += v
	}
	n := len(s.ratings[id])
	s.books[i].RatingNumber = n
	s.books[i].Rating = math.Round(float64(total)/float64(n)*10) / 10

	writeJSON(w, http.StatusOK, envelope(true, "Rating added successfully", map[string]any{"bookData": s.books[i]}))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")

	s.mu.Lock()
	data := []models.Review{}
	for _, rv := range s.reviews {
		if rv.BookID == bookID {
			data = append(data, rv)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{"reviewData": data}))
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request, u models.User) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, envelope(false, "Review content is required", nil))
		return
	}
	bookID := chi.URLParam(r, "bookId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookIndexLocked(bookID) < 0 {
		writeJSON(w, http.StatusNotFound, envelope(false, "Book not found", nil))
		return
	}
	rv := s.addReviewLocked(bookID, models.ReviewAuthor{ID: u.ID, FullName: u.FullName}, req.Content)
	writeJSON(w, http.StatusCreated, envelope(true, "Review added", map[string]any{"reviewData": rv}))
}

// handleVote toggles the caller's like (or dislike); casting one removes
// the opposite vote.
func (s *Server) handleVote(like bool) userHandler {
	return func(w http.ResponseWriter, r *http.Request, u models.User) {
		id := chi.URLParam(r, "reviewId")

		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.reviewIndexLocked(id)
		if i < 0 {
			writeJSON(w, http.StatusNotFound, envelope(false, "Review not found", nil))
			return
		}

		rv := &s.reviews[i]
		mine, other := &rv.Likes, &rv.Dislikes
		if !like {
			mine, other = other, mine
		}
		if slices.Contains(*mine, u.ID) {
			*mine = slices.DeleteFunc(*mine, func(v string) bool { return v == u.ID })
		} else {
			*mine = append(*mine, u.ID)
			*other = slices.DeleteFunc(*other, func(v string) bool { return v == u.ID })
		}
		writeJSON(w, http.StatusOK, envelope(true, "", map[string]any{"reviewData": *rv}))
	}
}

func (s *Server) bookIndexLocked(id string) int {
	return slices.IndexFunc(s.books, func(b models.Book) bool { return b.ID == id })
}

func (s *Server) reviewIndexLocked(id string) int {
	return slices.IndexFunc(s.reviews, func(rv models.Review) bool { return rv.ID == id })
}

// userPayload adds a server-side field the client does not model.
func userPayload(u models.User) map[string]any {
	return map[string]any{
		"_id":       u.ID,
		"fullName":  u.FullName,
		"email":     u.Email,
		"isAdmin":   u.IsAdmin,
		"createdAt": "2024-01-01T00:00:00.000Z",
	}
}

func envelope(success bool, message string, payload map[string]any) map[string]any {
	out := map[string]any{"success": success}
	if message != "" {
		out["message"] = message
	}
	for k, v := range payload {
		out[k] = v
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope(false, "Malformed request body", nil))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
