package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

const (
	userKey  = "auth.user"
	tokenKey = "auth.token"
)

var errNoUser = errors.New("no authenticated user")

// Authenticator resolves bearer tokens to users
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (types.User, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth rejects requests without a valid bearer token and stores the
// resolved user on the context
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c)
			return
		}
		user, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			unauthorized(c)
			return
		}
		c.Set(userKey, user)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
}

// RequireRole lets through users holding one of roles
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	msg := "Access denied"
	if len(roles) == 1 {
		r := string(roles[0])
		msg = strings.ToUpper(r[:1]) + r[1:] + " access required"
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			unauthorized(c)
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
	}
}

// CurrentUser returns the user stored by Auth
func CurrentUser(c *gin.Context) (types.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return types.User{}, false
	}
	u, ok := v.(types.User)
	return u, ok
}

// MustUser returns the user stored by Auth or an error for handlers
// mounted without it
func MustUser(c *gin.Context) (types.User, error) {
	u, ok := CurrentUser(c)
	if !ok {
		return types.User{}, errNoUser
	}
	return u, nil
}

// Token returns the bearer token stored by Auth
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}
