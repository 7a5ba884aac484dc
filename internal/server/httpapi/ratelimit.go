package httpapi

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophtodo/internal/server/ratelimit"
	"github.com/gin-gonic/gin"
)

func throttleLogin(l *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
				Code:    "TOO_MANY_ATTEMPTS",
				Message: "Too many login attempts. Try again later.",
			})
			return
		}
		c.Next()
	}
}
