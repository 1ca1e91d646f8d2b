package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timeslots-api/internal/models"
	appErrors "github.com/noah-isme/timeslots-api/pkg/errors"
	"github.com/noah-isme/timeslots-api/pkg/response"
)

// RequireRoles lets the request through only when the caller holds one of roles.
// It must run after JWT.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Abort(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
