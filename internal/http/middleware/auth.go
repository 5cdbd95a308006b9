package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/payments-service/internal/model"
	"github.com/nurpe/payments-service/internal/service"
)

const (
	principalKey = "principal"

	// ProfileHeader carries the caller's profile id when no bearer token is sent.
	ProfileHeader = "profile_id"
)

type TokenParser interface {
	Enabled() bool
	ProfileID(token string) (int64, error)
}

type PrincipalResolver interface {
	Principal(ctx context.Context, profileID int64) (model.Principal, error)
}

// Auth identifies the caller from a bearer token or the profile_id header and
// loads the matching profile. Unknown callers get 401.
func Auth(tokens TokenParser, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := callerProfileID(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		principal, err := resolver.Principal(c.Request.Context(), profileID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func callerProfileID(c *gin.Context, tokens TokenParser) (int64, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header != "" {
		if tokens == nil || !tokens.Enabled() {
			return 0, false
		}
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return 0, false
		}
		id, err := tokens.ProfileID(strings.TrimSpace(token))
		if err != nil {
			return 0, false
		}
		return id, true
	}

	raw := strings.TrimSpace(c.GetHeader(ProfileHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}
