package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError represents an error response from the API.
type APIError struct {
	Code int    `json:"code"`
	Err  string `json:"err"`
	Data any    `json:"data,omitempty"`
}

func (e APIError) Error() string {
	return e.Err
}

// APIResponse represents a success response from the API.
type APIResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func (r APIResponse) Error() string {
	return r.Msg
}

// ErrorHandler adapts error-returning handlers to gin. Handlers that
// write the response themselves return nil.
func ErrorHandler(fn func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := fn(c)
		if err == nil {
			return
		}

		var apiErr APIError
		var apiResp APIResponse
		switch {
		case errors.As(err, &apiErr):
			c.AbortWithStatusJSON(apiErr.Code, apiErr)
		case errors.As(err, &apiResp):
			c.AbortWithStatusJSON(apiResp.Code, apiResp)
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
				Code: http.StatusInternalServerError,
				Err:  err.Error(),
			})
		}
	}
}
