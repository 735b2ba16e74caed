package graphs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cloutiere/mermaid/pkg/apperror"
)

func TestSymbolCollision(t *testing.T) {
	err := symbolCollision("X", "subgraph")

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, "integrity_conflict", appErr.Code)
	assert.Equal(t, "X", appErr.Details["symbolicId"])
	assert.Equal(t, "subgraph", appErr.Details["usedBy"])
}
