package cli

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/bookstore/internal/client/api"
	"github.com/dmitrijs2005/bookstore/internal/client/api/apitest"
	"github.com/dmitrijs2005/bookstore/internal/client/notify"
	"github.com/dmitrijs2005/bookstore/internal/client/storage"
	"github.com/dmitrijs2005/bookstore/internal/client/store"
	"github.com/dmitrijs2005/bookstore/internal/logging"
)

type testApp struct {
	*App
	srv     *apitest.Server
	session *store.Session
	catalog *store.Catalog
	out     *bytes.Buffer
	notes   *notify.Recorder
}

// newTestApp wires an App to a fake API. input feeds every prompt that is
// not stubbed.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	srv := apitest.New(t)
	client := api.NewHTTPClient(srv.BaseURL())
	notes := &notify.Recorder{}
	log := logging.Discard()

	session := store.NewSession(client, storage.NewMemoryStorage(), notes, log)
	catalog := store.NewCatalog(client, notes, log)

	out := &bytes.Buffer{}
	app := NewApp(session, catalog, log, strings.NewReader(input), out)

	return &testApp{App: app, srv: srv, session: session, catalog: catalog, out: out, notes: notes}
}

// stubPassword makes getPassword return pw for the duration of the test.
// The result is a fresh copy each call since callers wipe it.
func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ *bufio.Reader, _ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}
