package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvocationIDKey is the context key holding the parsed :id parameter.
const InvocationIDKey = "invocation_id"

// InvocationIDValidator rejects requests whose :id parameter is not a
// valid UUID before any handler work happens.
func InvocationIDValidator() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("id")

		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": "invalid invocation identifier format",
			})
			return
		}
		c.Set(InvocationIDKey, parsed)
		c.Next()
	}
}
