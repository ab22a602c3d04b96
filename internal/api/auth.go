package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"tourguide/internal/config"
	"tourguide/internal/domain"
	"tourguide/internal/logging"
	"tourguide/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	principalKey        = "principal"
	clientKeyUnknown    = "unknown"
)

// TokenAuthenticator resolves an API token into a principal.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (models.Principal, error)
}

// Auth resolves the caller of every request. Admin keys from config map to the admin
// role; any other key is looked up as a user API token.
type Auth struct {
	header    string
	adminKeys []config.APIClientKey
	accounts  TokenAuthenticator
}

func NewAuth(cfg config.APIAuthConfig, accounts TokenAuthenticator) *Auth {
	header := strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &Auth{header: header, adminKeys: cfg.AdminKeys, accounts: accounts}
}

// Middleware stores the caller's principal on the context. Requests without a key
// continue as anonymous; unknown keys are rejected.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := a.key(c)
		if key == "" {
			c.Set(principalKey, models.Anonymous)
			c.Next()
			return
		}

		p, err := a.resolve(c.Request.Context(), key)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(logging.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func (a *Auth) key(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(a.header)); key != "" {
		return key
	}
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	for _, scheme := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(auth, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(auth, scheme))
		}
	}
	return ""
}

func (a *Auth) resolve(ctx context.Context, key string) (models.Principal, error) {
	for _, k := range a.adminKeys {
		if k.Key != "" && subtle.ConstantTimeCompare([]byte(k.Key), []byte(key)) == 1 {
			return models.Principal{Role: models.RoleAdmin, Name: k.Name}, nil
		}
	}
	if a.accounts == nil {
		return models.Anonymous, domain.ErrUnauthenticated
	}
	p, err := a.accounts.Authenticate(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return models.Anonymous, domain.ErrUnauthenticated
	}
	return p, err
}

func principal(c *gin.Context) models.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(models.Principal); ok {
			return p
		}
	}
	return models.Anonymous
}

// requireAuth rejects anonymous callers before the handler runs.
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).Authenticated() {
			writeError(c, domain.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}
