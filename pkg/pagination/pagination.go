package pagination

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/trials-api/pkg/errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Offset int
	Limit  int
}

// Options tunes FromContext; the zero value uses the package defaults.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// OffsetAliases are extra query keys accepted in place of "offset".
	OffsetAliases []string
}

// FromContext extracts offset/limit from the query string. Missing values
// fall back to defaults; malformed or negative values are validation errors.
func FromContext(c *gin.Context, opts Options) (Params, error) {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxLimit
	}

	offsetKey := "offset"
	raw, ok := c.GetQuery(offsetKey)
	for _, alias := range opts.OffsetAliases {
		if ok {
			break
		}
		offsetKey = alias
		raw, ok = c.GetQuery(alias)
	}

	offset, err := parseNonNegative(offsetKey, raw, ok, 0)
	if err != nil {
		return Params{}, err
	}

	rawLimit, ok := c.GetQuery("limit")
	limit, err := parseNonNegative("limit", rawLimit, ok, opts.DefaultLimit)
	if err != nil {
		return Params{}, err
	}
	if limit > opts.MaxLimit {
		limit = opts.MaxLimit
	}

	return Params{Offset: offset, Limit: limit}, nil
}

func parseNonNegative(key, raw string, present bool, def int) (int, error) {
	if !present || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validation(fmt.Sprintf("%s must be an integer", key), err)
	}
	if n < 0 {
		return 0, errors.Validation(fmt.Sprintf("%s must not be negative", key), nil)
	}
	return n, nil
}
