package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTestOne = errors.New("one")
	errTestTwo = errors.New("two")
)

func TestAppendError(t *testing.T) {
	t.Parallel()
	assert.NoError(t, AppendError(nil, nil))
	assert.ErrorIs(t, AppendError(errTestOne, nil), errTestOne)
	assert.ErrorIs(t, AppendError(nil, errTestTwo), errTestTwo)

	err := AppendError(errTestOne, errTestTwo)
	assert.ErrorIs(t, err, errTestOne)
	assert.ErrorIs(t, err, errTestTwo)

	err = AppendError(err, ErrNilPointer)
	assert.ErrorIs(t, err, errTestOne)
	assert.ErrorIs(t, err, ErrNilPointer)
}

func TestNilGuard(t *testing.T) {
	t.Parallel()
	require.NoError(t, NilGuard(1, "two", &struct{}{}))
	err := NilGuard(1, nil, nil)
	require.ErrorIs(t, err, ErrNilPointer)
	assert.Contains(t, err.Error(), "argument 1")
	assert.Contains(t, err.Error(), "argument 2")
}

func TestIsEnabled(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Enabled", IsEnabled(true))
	assert.Equal(t, "Disabled", IsEnabled(false))
}

func TestNilGuardTypedNil(t *testing.T) {
	t.Parallel()
	var p *struct{}
	var m map[string]int
	err := NilGuard(p, m)
	require.ErrorIs(t, err, ErrNilPointer)
	assert.Contains(t, err.Error(), "argument 0")
	assert.Contains(t, err.Error(), "argument 1")
}
