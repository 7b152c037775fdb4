package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceNotFoundError(t *testing.T) {
	err := &TraceNotFoundError{ID: "trc_1"}

	assert.ErrorIs(t, err, ErrTraceNotFound)
	assert.ErrorIs(t, fmt.Errorf("show: %w", err), ErrTraceNotFound)
	assert.False(t, errors.Is(err, errors.New("trace not found")))

	var re RecoverableError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "TRACE_NOT_FOUND", re.ErrorCode())
	assert.Equal(t, map[string]string{"trace_id": "trc_1"}, re.Context())
	assert.Equal(t, "tracekit list", re.SuggestedAction())
}
