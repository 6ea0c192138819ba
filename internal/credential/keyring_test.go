package credential_test

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/credential"
)

func TestSessionLifecycle(t *testing.T) {
	s := credential.NewWithKeyring(keyring.NewArrayKeyring(nil))

	_, ok, err := s.Session()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSession("profile-1"))
	id, ok, err := s.Session()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "profile-1", id)

	require.NoError(t, s.ClearSession())
	_, ok, err = s.Session()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ClearSession(), "clearing twice is fine")
}

func TestGetMissing(t *testing.T) {
	s := credential.NewWithKeyring(keyring.NewArrayKeyring(nil))

	_, err := s.Get("nothing")
	require.ErrorIs(t, err, credential.ErrNotFound)
}
