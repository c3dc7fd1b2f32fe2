package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateGetRevoke(t *testing.T) {
	r := NewRegistry("/previews/")

	h := r.Create([]byte("jpeg"), "image/jpeg")
	assert.NotEmpty(t, h.ID)
	assert.True(t, strings.HasPrefix(h.URL, "/previews/"))
	assert.Equal(t, 1, r.Len())

	data, contentType, ok := r.Get(h.ID)
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "image/jpeg", contentType)

	assert.True(t, r.Revoke(h.ID))
	assert.False(t, r.Revoke(h.ID), "second revoke is a no-op")
	_, _, ok = r.Get(h.ID)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestRegistry_HandlesAreUnique(t *testing.T) {
	r := NewRegistry("/previews/")
	a := r.Create([]byte("a"), "image/jpeg")
	b := r.Create([]byte("b"), "image/jpeg")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegistry_RevokeAll(t *testing.T) {
	r := NewRegistry("/previews/")
	r.Create([]byte("a"), "image/jpeg")
	r.Create([]byte("b"), "image/jpeg")

	assert.Equal(t, 2, r.RevokeAll())
	assert.Zero(t, r.Len())
	assert.Zero(t, r.RevokeAll())
}
