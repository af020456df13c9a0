package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"shareit/internal/config"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	permReadBookings      = "read:bookings"
	permWriteBookings     = "write:bookings"
	permReadItems         = "read:items"
	clientKeyUnknown      = "unknown"
)

var (
	errMissingAPIKey     = errors.New("missing api key headers")
	errInvalidAPIKey     = errors.New("invalid api key")
	errInvalidExtra      = errors.New("invalid extra header")
	errPermissionDenied  = errors.New("permission denied")
	errRateLimitExceeded = errors.New("rate limit exceeded")
)

// HTTPAuth provides API-key auth and per-client rate limiting.
type HTTPAuth struct {
	cfg     config.APIConfig
	clients map[string]config.APIClientKey
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m, limiter: newRateLimiter(cfg.RateLimit)}
}

// Middleware rejects unauthenticated or throttled requests.
func (a *HTTPAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(c); err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					status = http.StatusForbidden
				}
				abortWithError(c, status, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(c); err != nil {
			abortWithError(c, http.StatusTooManyRequests, err.Error())
			return
		}

		c.Next()
	}
}

func (a *HTTPAuth) apiKeyHeader() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		return apiKeyHeaderDefault
	}
	return h
}

func (a *HTTPAuth) extraHeader() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderExtra))
	if h == "" {
		return apiExtraHeaderDefault
	}
	return h
}

func (a *HTTPAuth) checkAuth(c *gin.Context) error {
	apiKey := strings.TrimSpace(c.GetHeader(a.apiKeyHeader()))
	extra := strings.TrimSpace(c.GetHeader(a.extraHeader()))
	if apiKey == "" || extra == "" {
		return errMissingAPIKey
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errInvalidExtra
	}

	return a.checkPermissions(client, c.Request)
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" {
		return nil
	}
	// If permissions list is empty, treat as allow-all.
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/bookings"):
		if r.Method == http.MethodGet {
			return permReadBookings
		}
		return permWriteBookings
	case strings.HasPrefix(path, "/items"):
		return permReadItems
	default:
		return ""
	}
}

func (a *HTTPAuth) checkRateLimit(c *gin.Context) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}
	if !a.limiter.getLimiter(a.clientKey(c)).Allow() {
		return errRateLimitExceeded
	}
	return nil
}

// clientKey trusts the api key only after checkAuth has validated it.
func (a *HTTPAuth) clientKey(c *gin.Context) string {
	if a.cfg.Auth.Enabled {
		if apiKey := strings.TrimSpace(c.GetHeader(a.apiKeyHeader())); apiKey != "" {
			return apiKey
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return clientKeyUnknown
}
