package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

type tokenTable map[string]types.User

func (tt tokenTable) Authenticate(_ context.Context, token string) (types.User, error) {
	if u, ok := tt[token]; ok {
		return u, nil
	}
	return types.User{}, errors.New("bad token")
}

func authRouter() *gin.Engine {
	r := setupTestRouter()
	tokens := tokenTable{
		"admin-token": {ID: "a1", Username: "admin", Role: types.RoleAdmin},
		"user-token":  {ID: "u1", Username: "user1", Role: types.RoleUser},
	}
	api := r.Group("/", Auth(tokens))
	api.GET("/me", func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": u.Username, "token": Token(c)})
	})
	api.GET("/admin", RequireRole(types.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestAuth(t *testing.T) {
	r := authRouter()

	tests := []struct {
		name   string
		header string
		path   string
		want   int
	}{
		{"missing header", "", "/me", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", "/me", http.StatusUnauthorized},
		{"valid token", "Bearer user-token", "/me", http.StatusOK},
		{"wrong role", "Bearer user-token", "/admin", http.StatusForbidden},
		{"right role", "Bearer admin-token", "/admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthStoresUserAndToken(t *testing.T) {
	r := authRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"user1","token":"user-token"}`, w.Body.String())
}

func TestRequireRoleMessage(t *testing.T) {
	r := authRouter()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"error":"Admin access required"}`, w.Body.String())
}

func TestMustUserWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := MustUser(c)
	assert.Error(t, err)
}

func TestRecovery(t *testing.T) {
	r := setupTestRouter()
	r.Use(Recovery(logging.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
