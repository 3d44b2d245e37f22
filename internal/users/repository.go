package users

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/useradmin/internal/platform/db"
	"github.com/odyssey-erp/useradmin/internal/shared"
)

// Migrations holds the managed_users schema, applied with db.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const selectColumns = `id, name, username, email, phone, website, role, is_active, skills, available_slots, address, company`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users in insertion order.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM managed_users ORDER BY created_at, id`)
	if err != nil {
		return nil, shared.Unavailable("list users", err)
	}
	defer rows.Close()
	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, shared.Unavailable("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Unavailable("list users", err)
	}
	return users, nil
}

// GetUser returns one user.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM managed_users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return User{}, mapReadError("get user", err)
	}
	return u, nil
}

// CreateUser inserts u. The id must already be assigned.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		return User{}, fmt.Errorf("create user: %w: id required", shared.ErrValidation)
	}
	address, company, err := encodeNested(u)
	if err != nil {
		return User{}, err
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO managed_users
		(id, name, username, email, phone, website, role, is_active, skills, available_slots, address, company)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+selectColumns,
		u.ID, u.Name, u.Username, u.Email, u.Phone, u.Website, string(u.Role), u.IsActive,
		nonNilStrings(u.Skills), nonNilTimes(u.AvailableSlots), address, company)
	created, err := scanUser(row)
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return created, nil
}

// UpdateUser applies p to user id inside a transaction.
func (r *Repository) UpdateUser(ctx context.Context, id string, p Patch) (User, error) {
	var updated User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanUser(tx.QueryRow(ctx, `SELECT `+selectColumns+` FROM managed_users WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		next := p.Apply(current)
		address, company, err := encodeNested(next)
		if err != nil {
			return err
		}
		updated, err = scanUser(tx.QueryRow(ctx, `UPDATE managed_users SET
			name = $2, username = $3, email = $4, phone = $5, website = $6, role = $7,
			is_active = $8, skills = $9, available_slots = $10, address = $11, company = $12,
			updated_at = now()
			WHERE id = $1
			RETURNING `+selectColumns,
			id, next.Name, next.Username, next.Email, next.Phone, next.Website, string(next.Role),
			next.IsActive, nonNilStrings(next.Skills), nonNilTimes(next.AvailableSlots), address, company))
		return err
	})
	if err != nil {
		return User{}, mapWriteError(err)
	}
	return updated, nil
}

// DeleteUser removes user id.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM managed_users WHERE id = $1`, id)
	if err != nil {
		return shared.Unavailable("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Backend = (*Repository)(nil)

func scanUser(row pgx.Row) (User, error) {
	var (
		u       User
		role    string
		address []byte
		company []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.Website, &role, &u.IsActive,
		&u.Skills, &u.AvailableSlots, &address, &company); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	if len(address) > 0 {
		u.Address = &Address{}
		if err := json.Unmarshal(address, u.Address); err != nil {
			return User{}, fmt.Errorf("decode address of %s: %w", u.ID, err)
		}
	}
	if len(company) > 0 {
		u.Company = &Company{}
		if err := json.Unmarshal(company, u.Company); err != nil {
			return User{}, fmt.Errorf("decode company of %s: %w", u.ID, err)
		}
	}
	for i, slot := range u.AvailableSlots {
		u.AvailableSlots[i] = slot.UTC()
	}
	return u, nil
}

func encodeNested(u User) (address, company []byte, err error) {
	if u.Address != nil {
		if address, err = json.Marshal(u.Address); err != nil {
			return nil, nil, err
		}
	}
	if u.Company != nil {
		if company, err = json.Marshal(u.Company); err != nil {
			return nil, nil, err
		}
	}
	return address, company, nil
}

// mapReadError turns a missing row into ErrNotFound and anything else into
// ErrBackendUnavailable.
func mapReadError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return shared.Unavailable(op, err)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilTimes(v []time.Time) []time.Time {
	if v == nil {
		return []time.Time{}
	}
	return v
}
