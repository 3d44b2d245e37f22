package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/useradmin/internal/users"
)

func TestSeedUsersSkipsExisting(t *testing.T) {
	demo := users.DemoUsers(time.Now())
	backend := users.NewMemoryBackend(demo[:3]...)

	created, skipped, err := seedUsers(context.Background(), backend, demo)
	require.NoError(t, err)
	assert.Equal(t, len(demo)-3, created)
	assert.Equal(t, 3, skipped)

	all, err := backend.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(demo))
}

func TestSeedUsersStopsOnError(t *testing.T) {
	backend := users.NewMemoryBackend()
	_, _, err := seedUsers(context.Background(), backend, []users.User{{Name: "no id"}})
	assert.Error(t, err)
}
