//go:build !windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnavailable(t *testing.T) {
	b, err := New()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, b)
}
