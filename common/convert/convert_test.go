package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatFromString(t *testing.T) {
	t.Parallel()
	f, err := FloatFromString(" 1.5 ")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	_, err = FloatFromString("abc")
	assert.Error(t, err)
}

func TestTimeFromString(t *testing.T) {
	t.Parallel()
	tt, err := TimeFromString("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), tt.Unix())

	tt, err = TimeFromString("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), tt)

	tt, err = TimeFromString("2024-01-02T09:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, 9, tt.Hour())

	_, err = TimeFromString("yesterday")
	assert.Error(t, err)
}

func TestBoolPtr(t *testing.T) {
	t.Parallel()
	y := BoolPtr(true)
	n := BoolPtr(false)
	assert.True(t, *y)
	assert.False(t, *n)
}
