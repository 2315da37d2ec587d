package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/trials-api/pkg/errors"
)

func contextWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/patients?"+query, nil)
	return c
}

func TestFromContext_Defaults(t *testing.T) {
	p, err := FromContext(contextWithQuery(""), Options{})
	require.NoError(t, err)
	assert.Equal(t, Params{Offset: 0, Limit: DefaultLimit}, p)
}

func TestFromContext_ExplicitValues(t *testing.T) {
	p, err := FromContext(contextWithQuery("offset=10&limit=5"), Options{})
	require.NoError(t, err)
	assert.Equal(t, Params{Offset: 10, Limit: 5}, p)
}

func TestFromContext_OffsetAlias(t *testing.T) {
	p, err := FromContext(contextWithQuery("skip=3"), Options{OffsetAliases: []string{"skip"}})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Offset)

	// offset wins over the alias
	p, err = FromContext(contextWithQuery("skip=3&offset=1"), Options{OffsetAliases: []string{"skip"}})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Offset)
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p, err := FromContext(contextWithQuery("limit=10000"), Options{MaxLimit: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, p.Limit)
}

func TestFromContext_Invalid(t *testing.T) {
	for _, q := range []string{"offset=abc", "limit=-1", "offset=-5", "limit=1.5"} {
		t.Run(q, func(t *testing.T) {
			_, err := FromContext(contextWithQuery(q), Options{})
			require.Error(t, err)
			assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))
		})
	}
}
