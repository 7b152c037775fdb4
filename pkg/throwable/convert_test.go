package throwable

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	base := fs.ErrNotExist
	wrapped := fmt.Errorf("open config: %w", base)

	n := FromError(wrapped)
	require.NotNil(t, n)
	assert.Equal(t, "*fmt.wrapError", n.Name)
	assert.Equal(t, "open config: file does not exist", n.Message)
	require.NotNil(t, n.Cause)
	assert.Equal(t, "*errors.errorString", n.Cause.Name)
	assert.Equal(t, "file does not exist", n.Cause.Message)
	assert.Nil(t, n.Cause.Cause)
}

func TestFromError_Joined(t *testing.T) {
	joined := errors.Join(errors.New("first"), fmt.Errorf("second: %w", errors.New("inner")))

	n := FromError(joined)
	require.NotNil(t, n)
	require.Len(t, n.Suppressed, 2)
	assert.Equal(t, "first", n.Suppressed[0].Message)
	require.NotNil(t, n.Suppressed[1].Cause)
	assert.Equal(t, "inner", n.Suppressed[1].Cause.Message)

	// The converted tree survives a text round trip.
	assert.True(t, n.Equal(Parse(Format(n, true))))
}

func TestFingerprint(t *testing.T) {
	a := sampleTree()
	b := sampleTree()
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 64)

	b.Cause.OmittedElements++
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
