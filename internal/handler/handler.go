package handler

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jwalitptl/trials-api/pkg/errors"
	"github.com/jwalitptl/trials-api/pkg/pagination"
	"github.com/jwalitptl/trials-api/pkg/validator"
)

// Paging carries the list limits every list endpoint applies.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paging) options(aliases ...string) pagination.Options {
	return pagination.Options{
		DefaultLimit:  p.DefaultLimit,
		MaxLimit:      p.MaxLimit,
		OffsetAliases: aliases,
	}
}

// Page reads offset/limit (plus any offset aliases) from the query string.
func (p Paging) Page(c *gin.Context, aliases ...string) (pagination.Params, error) {
	return pagination.FromContext(c, p.options(aliases...))
}

// ParamID parses a positive int64 path parameter. Anything else is a 422.
func ParamID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validation(
			fmt.Sprintf("invalid %s", name),
			validator.FieldErrors{{Field: name, Message: fmt.Sprintf("must be a positive integer, got %q", raw)}},
		)
	}
	return id, nil
}

// BindJSON decodes and validates the request body. Decode and validation
// failures are 422s carrying per-field messages.
func BindJSON(c *gin.Context, obj interface{}) error {
	return bindError(c.ShouldBindJSON(obj))
}

// BindQuery binds and validates query parameters.
func BindQuery(c *gin.Context, obj interface{}) error {
	return bindError(c.ShouldBindWith(obj, binding.Query))
}

func bindError(err error) error {
	if err == nil {
		return nil
	}
	if fields, ok := validator.Translate(err); ok {
		return errors.Validation("request validation failed", validator.FieldErrors(fields))
	}
	if stderrors.Is(err, io.EOF) {
		return errors.Validation("request body is required",
			validator.FieldErrors{{Field: "body", Message: "field is required"}})
	}
	return errors.BadRequest("invalid request", err)
}
