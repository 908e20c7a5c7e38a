package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilInstance(t *testing.T) {
	t.Parallel()
	var i *Instance
	assert.False(t, i.IsConnected())
	assert.Empty(t, i.Path())
	err := i.CloseConnection()
	if !errors.Is(err, errNilInstance) {
		t.Errorf("received '%v' expected '%v'", err, errNilInstance)
	}
	_, err = i.GetSQL()
	assert.ErrorIs(t, err, errNilInstance)
	assert.ErrorIs(t, i.SetSQLiteConnection("", nil), errNilInstance)
}

func TestDisconnectedInstance(t *testing.T) {
	t.Parallel()
	i := &Instance{}
	assert.ErrorIs(t, i.SetSQLiteConnection("test.db", nil), errNilSQL)
	_, err := i.GetSQL()
	assert.ErrorIs(t, err, errNilSQL)
	assert.ErrorIs(t, i.Ping(context.Background()), errNilSQL)
	assert.ErrorIs(t, i.Migrate(context.Background()), errNilSQL)
	assert.ErrorIs(t, i.CloseConnection(), errNilSQL)
}
