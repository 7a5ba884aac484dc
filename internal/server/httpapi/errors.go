package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// abortWithError translates service errors into responses. Nothing beyond
// the fixed messages below reaches the client.
func (h *handlers) abortWithError(c *gin.Context, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Code: "INVALID_INPUT", Message: "Please correct the errors below.", Fields: verr.Fields})
	case errors.Is(err, common.ErrDuplicateEmail):
		c.AbortWithStatusJSON(http.StatusConflict, errorBody{Code: "EMAIL_TAKEN", Message: "Email already registered"})
	case errors.Is(err, common.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"})
	case errors.Is(err, common.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Code: "UNAUTHORIZED", Message: "Please log in to access this page."})
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "Todo not found"})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "Something went wrong."})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Code: "INVALID_INPUT", Message: msg})
}
