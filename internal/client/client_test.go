package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "tok-123"

func newAPI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var flaky atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "admin123" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Incorrect username or password"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + testToken + `","token_type":"bearer","expires_in":1800,` +
			`"user":{"id":"u1","username":"admin","email":"admin@digitaltwin.com","role":"admin","is_active":true}}`))
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Could not validate credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u1","username":"admin"}}`))
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		flaky.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		flaky.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Logged out"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &flaky
}

func newTestClient(url string, onLogout func(bool)) *Client {
	return New(Config{BaseURL: url, RetryWait: time.Millisecond, OnLogout: onLogout})
}

func TestLoginStoresCredentials(t *testing.T) {
	srv, _ := newAPI(t)
	c := newTestClient(srv.URL, nil)

	creds, err := c.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, testToken, creds.Token)
	assert.Equal(t, "admin", creds.Role)

	stored, ok, err := c.Credentials()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, creds.Token, stored.Token)
	assert.Equal(t, srv.URL, stored.Server)
}

func TestLoginRejected(t *testing.T) {
	srv, _ := newAPI(t)
	c := newTestClient(srv.URL, nil)

	_, err := c.Login(context.Background(), "admin", "wrong-password")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Incorrect username or password", apiErr.Message)

	_, ok, _ := c.Credentials()
	assert.False(t, ok)
}

func TestRequestAddsBearer(t *testing.T) {
	srv, _ := newAPI(t)
	c := newTestClient(srv.URL, nil)
	_, err := c.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, c.Get(context.Background(), "/users/me", &out))
	assert.Equal(t, "u1", out.User.ID)
}

func TestRequestWithoutLogin(t *testing.T) {
	srv, _ := newAPI(t)
	c := newTestClient(srv.URL, nil)

	_, err := c.Request(context.Background(), http.MethodGet, "/users/me", nil)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestUnauthorizedClearsCredentials(t *testing.T) {
	srv, _ := newAPI(t)
	var expired atomic.Bool
	store := NewMemoryStore()
	require.NoError(t, store.Save(Credentials{Token: "stale"}))
	c := New(Config{BaseURL: srv.URL, Store: store, OnLogout: func(e bool) { expired.Store(e) }})

	_, err := c.Request(context.Background(), http.MethodGet, "/users/me", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, expired.Load())

	_, ok, _ := store.Load()
	assert.False(t, ok)
}

type stuckStore struct {
	*MemoryStore
}

func (stuckStore) Clear() error { return errors.New("read-only file system") }

func TestUnauthorizedReportsClearFailure(t *testing.T) {
	srv, _ := newAPI(t)
	store := stuckStore{NewMemoryStore()}
	require.NoError(t, store.Save(Credentials{Token: "stale"}))
	called := false
	c := New(Config{BaseURL: srv.URL, Store: store, OnLogout: func(bool) { called = true }})

	_, err := c.Request(context.Background(), http.MethodGet, "/users/me", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "read-only file system")
	assert.False(t, called)

	// the token is still stored, so logout tries to clear it again
	err = c.Logout(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
}

func TestServerErrorsAreRetried(t *testing.T) {
	srv, hits := newAPI(t)
	store := NewMemoryStore()
	require.NoError(t, store.Save(Credentials{Token: testToken}))
	c := New(Config{BaseURL: srv.URL, Store: store, MaxRetries: 2, RetryWait: time.Millisecond})

	_, err := c.Request(context.Background(), http.MethodGet, "/flaky", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	srv, hits := newAPI(t)
	store := NewMemoryStore()
	require.NoError(t, store.Save(Credentials{Token: testToken}))
	c := New(Config{BaseURL: srv.URL, Store: store, RetryWait: time.Millisecond})

	_, err := c.Request(context.Background(), http.MethodGet, "/missing", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "User not found", apiErr.Message)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLogoutClearsCredentials(t *testing.T) {
	srv, _ := newAPI(t)
	calls := 0
	c := newTestClient(srv.URL, func(expired bool) {
		calls++
		assert.False(t, expired)
	})
	_, err := c.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	_, ok, _ := c.Credentials()
	assert.False(t, ok)
	assert.Equal(t, 1, calls)

	// second logout is a no-op
	assert.NoError(t, c.Logout(context.Background()))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twinctl", "credentials.toml")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(Credentials{Server: "http://twin.test", Token: "abc", Username: "staff1", Role: "staff", IssuedAt: issued}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", got.Token)
	assert.Equal(t, "staff1", got.Username)
	assert.True(t, issued.Equal(got.IssuedAt))

	require.NoError(t, store.Clear())
	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, store.Clear())
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	require.NoError(t, os.WriteFile(path, []byte("token = [unterminated"), 0o600))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = store.Load()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
