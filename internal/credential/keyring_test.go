package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vulcania/internal/model"
)

func useMemoryKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := Opener
	Opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { Opener = prev })
}

func TestSetGetDelete(t *testing.T) {
	useMemoryKeyring(t)

	require.NoError(t, Set("k", "v"))
	got, err := Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, Delete("k"))
	_, err = Get("k")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestResolveDSNPrecedence(t *testing.T) {
	useMemoryKeyring(t)
	t.Setenv(DSNEnvVar, "")

	_, err := ResolveDSN(model.BackendConfig{})
	assert.ErrorIs(t, err, ErrNoDSN)

	require.NoError(t, Set(DSNKey, "postgres://keyring"))
	dsn, err := ResolveDSN(model.BackendConfig{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://keyring", dsn)

	t.Setenv(DSNEnvVar, "postgres://env")
	dsn, err = ResolveDSN(model.BackendConfig{})
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", dsn)

	dsn, err = ResolveDSN(model.BackendConfig{DSN: "postgres://config"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://config", dsn)
}
