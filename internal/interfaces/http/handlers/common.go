// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patreg-insight/pkg/errors"
)

// errorResponse is the wire shape of every error reply.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error to its HTTP status and renders the
// standard error body.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	resp := errorResponse{
		Code:    code.String(),
		Message: errors.DefaultMessageForCode(code),
	}
	if appErr, ok := err.(*errors.AppError); ok {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), resp)
}

// listResponse is the standard paginated envelope.
type listResponse struct {
	Total int64       `json:"total"`
	Items interface{} `json:"items"`
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeBadRequest, "invalid query parameter").
			WithDetail(name + "=" + raw)
	}
	return n, nil
}

// queryInt64Ptr parses an optional int64 query parameter.
func queryInt64Ptr(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "invalid query parameter").
			WithDetail(name + "=" + raw)
	}
	return &n, nil
}

// queryBoolPtr parses an optional boolean query parameter.
func queryBoolPtr(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(errors.ErrCodeBadRequest, "invalid query parameter").
			WithDetail(name + "=" + raw)
	}
	return &b, nil
}

func pathInt64(c *gin.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeBadRequest, "invalid path parameter").
			WithDetail(name + "=" + c.Param(name))
	}
	return n, nil
}
