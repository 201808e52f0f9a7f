package middleware

import (
	"net/http"

	"ftf-gateway/internal/response"

	"github.com/gin-gonic/gin"
)

// Gin runs the interceptors as a Gin middleware. The remaining Gin
// handlers act as the terminal handler and only run when every
// interceptor forwards.
func Gin(interceptors ...Interceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		forwarded := false

		// Bridge handler to allow net/http interceptor execution
		terminal := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			forwarded = true
			c.Request = r
			c.Next()
		})

		Chain(interceptors, terminal).ServeHTTP(c.Writer, c.Request)

		// An interceptor answered or the client went away.
		if !forwarded {
			if !c.Writer.Written() && c.Request.Context().Err() != nil {
				c.Status(response.StatusClientClosedRequest)
			}
			c.Abort()
		}
	}
}
