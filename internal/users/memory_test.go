package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

func TestMemoryBackendCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend(sampleUsers()[:2]...)

	list, err := m.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(list))

	created, err := m.CreateUser(ctx, User{ID: "9", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "9", created.ID)

	_, err = m.CreateUser(ctx, User{ID: "9"})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
	_, err = m.CreateUser(ctx, User{Name: "No id"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	updated, err := m.UpdateUser(ctx, "9", Patch{Name: strPtr("Renamed"), IsActive: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsActive)

	require.NoError(t, m.DeleteUser(ctx, "1"))
	list, err = m.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "9"}, ids(list))

	_, err = m.GetUser(ctx, "1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = m.UpdateUser(ctx, "1", Patch{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, m.DeleteUser(ctx, "1"), shared.ErrNotFound)
}

func TestMemoryBackendIsolatesRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend(sampleUsers()[0])

	got, err := m.GetUser(ctx, "1")
	require.NoError(t, err)
	got.Skills[0] = "mutated"

	again, err := m.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Go", again.Skills[0])
}

func TestPatchApplyAndFields(t *testing.T) {
	base := sampleUsers()[0]
	role := RoleViewer
	p := Patch{Role: &role, Address: &Address{City: "Paris"}}

	out := p.Apply(base)
	assert.Equal(t, RoleViewer, out.Role)
	assert.Equal(t, "Paris", out.Address.City)
	assert.Equal(t, RoleAdmin, base.Role)
	assert.Nil(t, base.Address)
	assert.Equal(t, []string{"role", "address"}, p.Fields())

	full := ReplacementPatch(out)
	assert.Len(t, full.Fields(), 10, "company is unset")
	assert.Equal(t, out, full.Apply(User{ID: out.ID}))
}
