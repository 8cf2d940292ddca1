package cli

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/bookstore/internal/client/api/apitest"
	"github.com/dmitrijs2005/bookstore/internal/client/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoggedIn_FollowsSession(t *testing.T) {
	ta := newTestApp(t, "")
	ta.srv.AddUser("Ada Admin", "ada@example.org", "secret", true)

	assert.False(t, ta.isLoggedIn())
	assert.False(t, ta.isAdmin())

	require.NoError(t, ta.session.Login(context.Background(), "ada@example.org", "secret"))
	assert.True(t, ta.isLoggedIn())
	assert.True(t, ta.isAdmin())
}

func TestBootstrap_RestoresSessionAndLoadsCatalog(t *testing.T) {
	ta := newTestApp(t, "")
	seedCatalog(ta)
	ta.srv.AddUser("Rita Reader", "rita@example.org", "secret", false)
	ta.srv.SetSuggestions("Dune")
	require.NoError(t, ta.session.Login(context.Background(), "rita@example.org", "secret"))

	require.NoError(t, ta.Bootstrap(context.Background()))

	assert.Equal(t, store.StateAuthenticated, ta.session.State())
	assert.Len(t, ta.catalog.Books(), 2)
	assert.Len(t, ta.session.Suggestions(), 1)
	assert.Equal(t, 1, ta.srv.Hits(apitest.RouteCheck))
}

func TestBootstrap_ReportsCatalogFailure(t *testing.T) {
	ta := newTestApp(t, "")
	ta.srv.Fail(apitest.RouteListBooks, 500, "database down")

	require.Error(t, ta.Bootstrap(context.Background()))
	assert.Equal(t, store.StateAnonymous, ta.session.State())
}

func TestRun_ExitsOnEOF(t *testing.T) {
	capturePrintln(t)
	ta := newTestApp(t, "")
	seedCatalog(ta)

	require.NoError(t, ta.Run(context.Background()))
	assert.Contains(t, ta.out.String(), "Welcome to the Book Store")
	assert.Len(t, ta.catalog.Books(), 2)
}

func TestNewApp_StatusForGuest(t *testing.T) {
	ta := newTestApp(t, "")
	assert.Equal(t, "guest", ta.getStatus())
	assert.Empty(t, ta.currentUserID())
}
