// api/util/http_util.go
package util

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	lattice_errors "github.com/latticehq/lattice/api/errors"
	logger "github.com/latticehq/lattice/api/logging"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// Machine-readable error codes.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidNodeType  = "INVALID_NODE_TYPE"
	CodeAuthRequired     = "AUTHENTICATION_REQUIRED"
	CodeNodeNotFound     = "NODE_NOT_FOUND"
	CodeSchemaNotFound   = "SCHEMA_NOT_FOUND"
	CodePolicyNotFound   = "POLICY_NOT_FOUND"
	CodeOrgNotFound      = "ORG_NOT_FOUND"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeBusinessRule     = "BUSINESS_RULE_VIOLATION"
	CodeInternal         = "INTERNAL_ERROR"
	CodeRateLimited      = "RATE_LIMITED"
)

func RespondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
		Meta:    Meta{Timestamp: time.Now().UTC()},
	})
}

// RespondError maps the service error taxonomy onto HTTP statuses and
// machine codes. Unrecognized errors become opaque 500s; the underlying
// message is only exposed outside release mode.
func RespondError(c *gin.Context, err error) {
	status, body := classify(err)

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))
	} else {
		logger.Debug("Request rejected",
			zap.Error(err),
			zap.String("code", body.Code),
			zap.String("path", c.Request.URL.Path))
	}

	c.JSON(status, Response{
		Success: false,
		Error:   body,
		Meta:    Meta{Timestamp: time.Now().UTC()},
	})
}

func classify(err error) (int, *ErrorBody) {
	if ve, ok := lattice_errors.AsValidation(err); ok {
		return http.StatusBadRequest, &ErrorBody{
			Code:    CodeValidation,
			Message: ve.Error(),
			Details: map[string]string{"field": ve.Field, "reason": ve.Reason},
		}
	}
	if bre, ok := lattice_errors.AsBusinessRule(err); ok {
		return http.StatusConflict, &ErrorBody{
			Code:    CodeBusinessRule,
			Message: bre.Message,
			Details: map[string]string{"rule": bre.Rule},
		}
	}

	switch {
	case errors.Is(err, lattice_errors.ErrInvalidNodeType):
		return http.StatusBadRequest, &ErrorBody{Code: CodeInvalidNodeType, Message: err.Error()}
	case errors.Is(err, lattice_errors.ErrAuthenticationRequired):
		return http.StatusUnauthorized, &ErrorBody{Code: CodeAuthRequired, Message: err.Error()}
	case errors.Is(err, lattice_errors.ErrNodeNotFound):
		return http.StatusNotFound, &ErrorBody{Code: CodeNodeNotFound, Message: err.Error()}
	case errors.Is(err, lattice_errors.ErrSchemaNotFound):
		return http.StatusNotFound, &ErrorBody{Code: CodeSchemaNotFound, Message: err.Error()}
	case errors.Is(err, lattice_errors.ErrPolicyNotFound):
		return http.StatusNotFound, &ErrorBody{Code: CodePolicyNotFound, Message: err.Error()}
	case errors.Is(err, lattice_errors.ErrOrgNotFound):
		return http.StatusNotFound, &ErrorBody{Code: CodeOrgNotFound, Message: err.Error()}
	case errors.Is(err, lattice_errors.ErrUserNotFound):
		return http.StatusNotFound, &ErrorBody{Code: CodeUserNotFound, Message: err.Error()}
	}

	body := &ErrorBody{Code: CodeInternal, Message: "internal server error"}
	if gin.Mode() != gin.ReleaseMode {
		body.Details = map[string]string{"cause": err.Error()}
	}
	return http.StatusInternalServerError, body
}

// UserID returns the authenticated user id set by the auth middleware, empty
// for anonymous requests.
func UserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	id, _ := userID.(string)
	return id
}
