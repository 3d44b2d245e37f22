package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnavailableWrapsBoth(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable("list users", cause)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list users")
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "Invalid email or password.", UserSafeMessage(fmt.Errorf("login: %w", ErrInvalidCredentials)))
	assert.NotEqual(t, UserSafeMessage(ErrNotFound), UserSafeMessage(ErrBackendUnavailable))
	assert.Equal(t, "Something went wrong. Please try again.", UserSafeMessage(errors.New("boom")))
}
