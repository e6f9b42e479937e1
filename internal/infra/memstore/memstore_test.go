package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exhale-app/exhale/internal/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

func TestStore_LoadMissing(t *testing.T) {
	got, err := New().Load("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveCopiesInput(t *testing.T) {
	s := New()
	buf := []byte("abc")
	require.NoError(t, s.Save("k", buf))
	buf[0] = 'x'

	got, err := s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, 1, s.Saves())
}

func TestStore_FailSaves(t *testing.T) {
	s := New()
	s.FailSaves(ErrInjected)

	err := s.Save("k", []byte("v"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInjected)

	got, _ := s.Load("k")
	assert.Nil(t, got)

	s.FailSaves(nil)
	require.NoError(t, s.Save("k", []byte("v")))
	assert.Equal(t, 1, s.Saves())
}
