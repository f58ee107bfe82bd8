package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/redevc/audio-service/internal/utils"
)

// RequirePublisher gates routes that create or manage audio content. The
// publisher set mirrors the site's editorial roles.
func RequirePublisher() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("role")
		role, _ := v.(string)

		if !utils.IsPublisherRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "only publishers can upload audio",
			})
			return
		}

		c.Next()
	}
}
