package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/useradmin/internal/users"
	"github.com/odyssey-erp/useradmin/internal/users/restclient"
)

func TestOpenUsersBackend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	mem, err := OpenUsersBackend(ctx, &Config{UsersBackend: BackendMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &users.MemoryBackend{}, mem.Backend)
	assert.NoError(t, mem.Ping(ctx))
	mem.Close()

	rest, err := OpenUsersBackend(ctx, &Config{UsersBackend: BackendREST, UsersAPIURL: "http://users.internal"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &restclient.Client{}, rest.Backend)
	assert.Nil(t, rest.Pool)

	_, err = OpenUsersBackend(ctx, &Config{UsersBackend: "ldap"}, logger)
	assert.Error(t, err)
}
