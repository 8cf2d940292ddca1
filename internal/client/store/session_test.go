package store

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookstore/internal/client/api"
	"github.com/dmitrijs2005/bookstore/internal/client/api/apitest"
	"github.com/dmitrijs2005/bookstore/internal/client/models"
	"github.com/dmitrijs2005/bookstore/internal/client/notify"
	"github.com/dmitrijs2005/bookstore/internal/client/storage"
	"github.com/dmitrijs2005/bookstore/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_SuccessPersistsAndAttaches(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann Reader", "ann@example.com", "secret", false)

	var changes atomic.Int32
	e.session.Subscribe(func() { changes.Add(1) })

	require.NoError(t, e.session.Login(ctx, "ann@example.com", "secret"))

	user, ok := e.session.User()
	require.True(t, ok)
	assert.Equal(t, "Ann Reader", user.FullName)
	assert.Equal(t, StateAuthenticated, e.session.State())

	token := e.session.Credential()
	require.NotEmpty(t, token)
	stored, ok := e.storedToken(t)
	require.True(t, ok)
	assert.Equal(t, token, stored)
	assert.Equal(t, token, e.client.Credential())

	require.NoError(t, e.session.CheckSession(ctx))
	headers := e.srv.AuthHeaders()
	assert.Equal(t, "Bearer "+token, headers[len(headers)-1])

	assert.Equal(t, []string{"Login successful!"}, e.notes.Successes())
	assert.GreaterOrEqual(t, changes.Load(), int32(1))
}

func TestLogin_FailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()

	t.Run("bad credentials", func(t *testing.T) {
		e := newEnv(t)
		e.srv.AddUser("Ann", "ann@example.com", "secret", false)

		err := e.session.Login(ctx, "ann@example.com", "wrong")
		require.ErrorIs(t, err, api.ErrRejected)

		_, ok := e.session.User()
		assert.False(t, ok)
		assert.Empty(t, e.session.Credential())
		assert.Empty(t, e.client.Credential())
		_, stored := e.storedToken(t)
		assert.False(t, stored)
		assert.Equal(t, []string{"Invalid email or password"}, e.notes.Errors())
	})

	t.Run("bare envelope rejection", func(t *testing.T) {
		e := newEnv(t)
		e.srv.Reject(apitest.RouteLogin, "")

		require.Error(t, e.session.Login(ctx, "x@example.com", "pw"))
		assert.Equal(t, []string{"Login failed."}, e.notes.Errors())
	})

	t.Run("network error keeps an existing session", func(t *testing.T) {
		e := newEnv(t)
		e.srv.AddUser("Ann", "ann@example.com", "secret", false)
		require.NoError(t, e.session.Login(ctx, "ann@example.com", "secret"))
		before, _ := e.session.User()
		token := e.session.Credential()

		e.srv.Fail(apitest.RouteLogin, http.StatusServiceUnavailable, "")
		err := e.session.Login(ctx, "ann@example.com", "secret")
		require.ErrorIs(t, err, api.ErrUnavailable)

		after, ok := e.session.User()
		require.True(t, ok)
		assert.Equal(t, before, after)
		assert.Equal(t, token, e.session.Credential())
		assert.Equal(t, token, e.client.Credential())
		assert.Equal(t, StateAuthenticated, e.session.State())
	})
}

type fakeAuth struct {
	token    string
	user     models.User
	loginErr error

	mu         sync.Mutex
	credential string
	cleared    int

	suggestCalls atomic.Int32
	suggestGate  chan struct{}
}

func (f *fakeAuth) Login(context.Context, string, string) (string, models.User, error) {
	return f.token, f.user, f.loginErr
}

func (f *fakeAuth) Register(context.Context, models.Registration) error { return nil }

func (f *fakeAuth) CheckAuth(context.Context) (models.User, error) { return f.user, nil }

func (f *fakeAuth) SearchSuggestions(context.Context) ([]models.Suggestion, error) {
	f.suggestCalls.Add(1)
	if f.suggestGate != nil {
		<-f.suggestGate
	}
	return []models.Suggestion{{Text: "Dune"}}, nil
}

func (f *fakeAuth) SetCredential(token string) {
	f.mu.Lock()
	f.credential = token
	f.mu.Unlock()
}

func (f *fakeAuth) ClearCredential() {
	f.mu.Lock()
	f.credential = ""
	f.cleared++
	f.mu.Unlock()
}

func TestLogin_EmptyTokenIsFailure(t *testing.T) {
	fa := &fakeAuth{token: "", user: models.User{ID: "u1"}}
	notes := &notify.Recorder{}
	s := NewSession(fa, storage.NewMemoryStorage(), notes, logging.Discard())

	err := s.Login(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, StateUnknown, s.State())
	assert.Empty(t, fa.credential)
	assert.Equal(t, []string{"Login failed."}, notes.Errors())
}

func TestLogin_PersistFailureLeavesStateUnchanged(t *testing.T) {
	fa := &fakeAuth{token: "tok", user: models.User{ID: "u1"}}
	st := &failingStorage{Storage: storage.NewMemoryStorage(), setErr: errBoom}
	notes := &notify.Recorder{}
	s := NewSession(fa, st, notes, logging.Discard())

	err := s.Login(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, errBoom)

	_, ok := s.User()
	assert.False(t, ok)
	assert.Empty(t, s.Credential())
	assert.Empty(t, fa.credential)
	assert.Equal(t, []string{"Could not save your session."}, notes.Errors())
}

func TestLogout_NoResidualHeader(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "secret", false)
	book := e.srv.SeedBook(models.Book{Title: "Emma"})

	require.NoError(t, e.session.Login(ctx, "ann@example.com", "secret"))
	e.session.Logout(ctx)

	assert.Equal(t, StateAnonymous, e.session.State())
	assert.Empty(t, e.session.Credential())
	_, stored := e.storedToken(t)
	assert.False(t, stored)

	err := e.catalog.AddReview(ctx, book.ID, "hi")
	require.ErrorIs(t, err, api.ErrUnauthorized)

	headers := e.srv.AuthHeaders()
	assert.Empty(t, headers[len(headers)-1])
	assert.Contains(t, e.notes.Successes(), "Logged out successfully.")
}

func TestLogout_StorageErrorIsLoggedNotReturned(t *testing.T) {
	fa := &fakeAuth{token: "tok", user: models.User{ID: "u1"}}
	mem := storage.NewMemoryStorage()
	st := &failingStorage{Storage: mem, removeErr: errBoom}
	s := NewSession(fa, st, &notify.Recorder{}, logging.Discard())
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@b.c", "pw"))
	s.Logout(ctx)

	assert.Equal(t, StateAnonymous, s.State())
	_, ok := s.User()
	assert.False(t, ok)
	assert.Equal(t, 1, fa.cleared)
}

func TestRegister_SameStateAsLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	reg := models.Registration{FullName: "Bo Reader", Email: "bo@example.com", Password: "pw"}
	require.NoError(t, e.session.Register(ctx, reg))

	viaRegister, ok := e.session.User()
	require.True(t, ok)
	stored, _ := e.storedToken(t)
	assert.Equal(t, e.session.Credential(), stored)
	assert.Equal(t, []string{"Registration successful! Logging you in...", "Login successful!"}, e.notes.Successes())

	other := newEnv(t)
	other.srv.AddUser("Bo Reader", "bo@example.com", "pw", false)
	require.NoError(t, other.session.Login(ctx, "bo@example.com", "pw"))
	viaLogin, _ := other.session.User()

	assert.Equal(t, viaLogin.FullName, viaRegister.FullName)
	assert.Equal(t, viaLogin.Email, viaRegister.Email)
	assert.Equal(t, viaLogin.IsAdmin, viaRegister.IsAdmin)
	assert.Equal(t, other.session.State(), e.session.State())
}

func TestRegister_FailureNotifiesServerMessage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Bo", "bo@example.com", "pw", false)

	err := e.session.Register(ctx, models.Registration{FullName: "Bo", Email: "bo@example.com", Password: "x"})
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, []string{"User already exists"}, e.notes.Errors())
	assert.Equal(t, 0, e.srv.Hits(apitest.RouteLogin))
}

func TestBootstrap_NoToken(t *testing.T) {
	e := newEnv(t)
	e.client.SetCredential("leftover")

	require.NoError(t, e.session.Bootstrap(context.Background()))

	assert.Equal(t, StateAnonymous, e.session.State())
	assert.Empty(t, e.client.Credential())
	assert.Equal(t, 0, e.srv.Hits(apitest.RouteCheck))
}

func TestBootstrap_ValidToken(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", true)
	token := e.srv.IssueToken("ann@example.com", time.Hour)
	require.NoError(t, e.storage.Set(ctx, storage.CredentialKey, token))

	require.NoError(t, e.session.Bootstrap(ctx))

	assert.Equal(t, StateAuthenticated, e.session.State())
	assert.True(t, e.session.IsAdmin())
	assert.Equal(t, token, e.client.Credential())
	assert.Equal(t, []string{"Bearer " + token}, e.srv.AuthHeaders())
	assert.Empty(t, e.notes.Messages())
}

func TestBootstrap_InvalidTokenEndsAnonymous(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)
	token := e.srv.IssueToken("ann@example.com", time.Hour)
	e.srv.Revoke(token)
	require.NoError(t, e.storage.Set(ctx, storage.CredentialKey, token))

	err := e.session.Bootstrap(ctx)
	require.ErrorIs(t, err, api.ErrUnauthorized)

	assert.Equal(t, StateAnonymous, e.session.State())
	_, stored := e.storedToken(t)
	assert.False(t, stored)
	assert.Empty(t, e.client.Credential())
	assert.Empty(t, e.notes.Successes())
}

func TestCheckSession_NetworkFailureTearsDown(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)
	require.NoError(t, e.session.Login(ctx, "ann@example.com", "pw"))

	e.srv.Fail(apitest.RouteCheck, http.StatusBadGateway, "")
	require.ErrorIs(t, e.session.CheckSession(ctx), api.ErrUnavailable)

	assert.Equal(t, StateAnonymous, e.session.State())
	_, stored := e.storedToken(t)
	assert.False(t, stored)
}

func TestBootstrap_CancelledCheckDetachesCredential(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)
	token := e.srv.IssueToken("ann@example.com", time.Hour)
	require.NoError(t, e.storage.Set(context.Background(), storage.CredentialKey, token))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.session.Bootstrap(ctx), context.Canceled)

	assert.Equal(t, StateAnonymous, e.session.State())
	assert.Empty(t, e.session.Credential())
	assert.Empty(t, e.client.Credential())
	stored, ok := e.storedToken(t)
	assert.True(t, ok)
	assert.Equal(t, token, stored)
	assert.Empty(t, e.notes.Messages())
}

func TestCheckSession_CancelledAfterLoginDetaches(t *testing.T) {
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)
	require.NoError(t, e.session.Login(context.Background(), "ann@example.com", "pw"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.session.CheckSession(ctx), context.Canceled)

	assert.Equal(t, StateAnonymous, e.session.State())
	assert.Empty(t, e.client.Credential())
	_, stored := e.storedToken(t)
	assert.True(t, stored)
}

func TestBootstrap_LateFailedCheckKeepsNewerLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)
	old := e.srv.IssueToken("ann@example.com", 2*time.Hour)
	e.srv.Revoke(old)
	require.NoError(t, e.storage.Set(ctx, storage.CredentialKey, old))

	release := e.srv.HoldNext(apitest.RouteCheck)
	done := make(chan error, 1)
	go func() { done <- e.session.Bootstrap(ctx) }()
	require.Eventually(t, func() bool { return e.srv.Hits(apitest.RouteCheck) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, e.session.Login(ctx, "ann@example.com", "pw"))
	fresh := e.session.Credential()
	require.NotEqual(t, old, fresh)

	release()
	require.ErrorIs(t, <-done, ErrStale)

	assert.Equal(t, StateAuthenticated, e.session.State())
	assert.Equal(t, fresh, e.client.Credential())
	stored, ok := e.storedToken(t)
	assert.True(t, ok)
	assert.Equal(t, fresh, stored)
}

func TestCheckSession_LateSuccessAfterLogoutIsStale(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)
	require.NoError(t, e.session.Login(ctx, "ann@example.com", "pw"))

	release := e.srv.HoldNext(apitest.RouteCheck)
	done := make(chan error, 1)
	go func() { done <- e.session.CheckSession(ctx) }()
	require.Eventually(t, func() bool { return e.srv.Hits(apitest.RouteCheck) == 1 }, time.Second, 5*time.Millisecond)

	e.session.Logout(ctx)
	release()
	require.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, StateAnonymous, e.session.State())
}

func TestLogin_TrimsToken(t *testing.T) {
	fa := &fakeAuth{token: "  tok \n", user: models.User{ID: "u1"}}
	st := storage.NewMemoryStorage()
	s := NewSession(fa, st, &notify.Recorder{}, logging.Discard())

	require.NoError(t, s.Login(context.Background(), "a@b.c", "pw"))

	assert.Equal(t, "tok", s.Credential())
	assert.Equal(t, "tok", fa.credential)
	v, _, err := st.Get(context.Background(), storage.CredentialKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
}

func TestSuggestions_RefreshAndFilter(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.SetSuggestions("Dune", "1984")

	got := e.session.RefreshSuggestions(ctx)
	assert.Equal(t, []models.Suggestion{{Text: "Dune"}, {Text: "1984"}}, got)

	assert.Equal(t, []models.Suggestion{{Text: "Dune"}}, e.session.FilterSuggestions("du"))
	assert.Equal(t, []models.Suggestion{{Text: "Dune"}}, e.session.FilterSuggestions("  DU "))
	assert.Empty(t, e.session.FilterSuggestions("   "))
	assert.Empty(t, e.session.FilterSuggestions("zzz"))
}

func TestSuggestions_FailureEmptiesCacheSilently(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.SetSuggestions("Dune")
	require.Len(t, e.session.RefreshSuggestions(ctx), 1)

	e.srv.Fail(apitest.RouteSuggestions, http.StatusInternalServerError, "db down")
	got := e.session.RefreshSuggestions(ctx)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, e.session.Suggestions())
	assert.Empty(t, e.notes.Errors())
}

func TestSuggestions_ConcurrentRefreshShareOneRequest(t *testing.T) {
	fa := &fakeAuth{suggestGate: make(chan struct{})}
	s := NewSession(fa, storage.NewMemoryStorage(), notify.Discard{}, logging.Discard())

	var wg sync.WaitGroup
	results := make([][]models.Suggestion, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.RefreshSuggestions(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return fa.suggestCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fa.suggestGate)
	wg.Wait()

	assert.Equal(t, int32(1), fa.suggestCalls.Load())
	for _, r := range results {
		assert.Equal(t, []models.Suggestion{{Text: "Dune"}}, r)
	}
}

func TestCredentialExpiry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.AddUser("Ann", "ann@example.com", "pw", false)

	_, ok := e.session.CredentialExpiry()
	assert.False(t, ok)

	require.NoError(t, e.session.Login(ctx, "ann@example.com", "pw"))
	exp, ok := e.session.CredentialExpiry()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestCredentialExpiry_OpaqueToken(t *testing.T) {
	fa := &fakeAuth{token: "not-a-jwt", user: models.User{ID: "u1"}}
	s := NewSession(fa, storage.NewMemoryStorage(), notify.Discard{}, logging.Discard())
	require.NoError(t, s.Login(context.Background(), "a@b.c", "pw"))

	_, ok := s.CredentialExpiry()
	assert.False(t, ok)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
