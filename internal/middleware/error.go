package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/shortlink"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler turns errors attached with c.Error into JSON responses and
// recovers from panics. Handlers report failures through c.Error and return.
func ErrorHandler(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.WithFields(logrus.Fields{
					"panic": rec,
					"path":  c.Request.URL.Path,
				}).Error("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ginErr := c.Errors.Last()
		status, resp := translate(ginErr)
		if status >= http.StatusInternalServerError {
			logger.WithError(ginErr.Err).WithField("path", c.Request.URL.Path).Error("request failed")
		}
		c.JSON(status, resp)
	}
}

func translate(ginErr *gin.Error) (int, ErrorResponse) {
	err := ginErr.Err

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: bindingFields(verrs)}
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: verr.Fields}
	}

	if ginErr.IsType(gin.ErrorTypeBind) {
		return http.StatusBadRequest, ErrorResponse{Error: "malformed request: " + err.Error()}
	}

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, shortlink.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found"}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "you do not have permission to perform this action"}
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrNotExists),
		errors.Is(err, service.ErrSelfSubscription):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, ErrorResponse{Error: "unable to log in with provided credentials"}
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}
}

// bindingFields keys validator failures by the JSON path of the field,
// e.g. "ingredients[0].amount".
func bindingFields(verrs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		fields[name] = append(fields[name], message(fe))
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "username":
		return "may contain only letters, digits and @/./+/-/_"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
