package auth

import (
	"context"
	"strings"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

// Repository looks up operator accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Operator, error)
}

// StaticRepository serves a fixed set of operators loaded from configuration.
type StaticRepository struct {
	operators map[string]Operator
}

// NewStaticRepository registers the given operators. Entries without an
// email or password hash are ignored.
func NewStaticRepository(operators ...Operator) *StaticRepository {
	repo := &StaticRepository{operators: make(map[string]Operator, len(operators))}
	for _, op := range operators {
		if op.Email == "" || op.PasswordHash == "" {
			continue
		}
		repo.operators[normalizeEmail(op.Email)] = op
	}
	return repo
}

// FindByEmail returns the operator registered under email.
func (r *StaticRepository) FindByEmail(_ context.Context, email string) (*Operator, error) {
	op, ok := r.operators[normalizeEmail(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &op, nil
}

// Len reports how many operators are registered.
func (r *StaticRepository) Len() int {
	return len(r.operators)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
