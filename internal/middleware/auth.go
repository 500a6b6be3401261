package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/slated-app/slated/internal/apierror"
	"github.com/slated-app/slated/internal/logger"
	"github.com/slated-app/slated/internal/models"
	"github.com/slated-app/slated/internal/service"
	"github.com/slated-app/slated/pkg/supabase"
)

// UserContextKey is the gin context key holding the resolved caller.
const UserContextKey = "user"

// Auth verifies the bearer token and stores the resolved identity in the
// request context. Every route behind it can assume a valid caller.
func Auth(client *supabase.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Ctx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("authentication failed: missing authorization header")
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("authentication failed: invalid authorization format")
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		user, err := client.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			log.Warn("authentication failed: token verification error", logger.Err(err))
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		c.Set(UserContextKey, models.UserContext{
			UID:             user.ID,
			Email:           user.Email,
			NormalizedEmail: service.NormalizeEmail(user.Email),
			DisplayName:     user.DisplayName(),
		})

		ctx := logger.WithUserID(c.Request.Context(), user.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentUser returns the authenticated caller stored by Auth.
func CurrentUser(c *gin.Context) (models.UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return models.UserContext{}, false
	}
	user, ok := value.(models.UserContext)
	return user, ok
}
