package users

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

const snapshotLoadTimeout = 30 * time.Second

// Backend is the persistence collaborator holding the user collection.
type Backend interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, id string, p Patch) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// WarmupEnqueuer schedules a background snapshot warmup.
type WarmupEnqueuer interface {
	EnqueueUsersWarmup(ctx context.Context) error
}

// ServiceConfig carries optional collaborators of Service.
type ServiceConfig struct {
	Logger      *slog.Logger
	Cache       *Cache
	Warmup      WarmupEnqueuer
	WarmupDelay time.Duration
}

// Service handles user business logic on top of a Backend.
type Service struct {
	backend   Backend
	cache     *Cache
	validator *Validator
	logger    *slog.Logger
	warmup    *shared.Debouncer
	loads     singleflight.Group
	newID     func() string
}

// NewService builds Service instance.
func NewService(backend Backend, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		backend:   backend,
		cache:     cfg.Cache,
		validator: NewValidator(),
		logger:    logger.With(slog.String("component", "users")),
		newID:     uuid.NewString,
	}
	if cfg.Warmup != nil {
		delay := cfg.WarmupDelay
		if delay <= 0 {
			delay = 500 * time.Millisecond
		}
		enqueuer := cfg.Warmup
		s.warmup = shared.NewDebouncer(delay, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := enqueuer.EnqueueUsersWarmup(ctx); err != nil {
				s.logger.Warn("enqueue snapshot warmup", slog.Any("error", err))
			}
		})
	}
	return s
}

// Validator exposes the form validator.
func (s *Service) Validator() *Validator {
	return s.validator
}

// Snapshot returns the full user collection, from cache when possible.
func (s *Service) Snapshot(ctx context.Context) ([]User, error) {
	ver, err := s.cache.Version(ctx)
	if err != nil {
		s.logger.Warn("snapshot cache version", slog.Any("error", err))
		return s.listFromBackend(ctx)
	}
	snapshot, ok, err := s.cache.Lookup(ctx, ver)
	if err != nil {
		s.logger.Warn("snapshot cache lookup", slog.Any("error", err))
	}
	if ok {
		return snapshot, nil
	}

	// Concurrent misses for the same version share one backend fetch.
	resultCh := s.loads.DoChan(s.cache.Key(ver), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotLoadTimeout)
		defer cancel()
		users, err := s.listFromBackend(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Store(loadCtx, ver, users); err != nil {
			s.logger.Warn("snapshot cache store", slog.Any("error", err))
		}
		return users, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]User), nil
	}
}

// Query runs the Query Engine over the current snapshot.
func (s *Service) Query(ctx context.Context, d QueryDescriptor) (QueryResult, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	return Query(snapshot, d), nil
}

// WarmSnapshot reloads the collection from the backend into the cache and
// returns the number of records cached.
func (s *Service) WarmSnapshot(ctx context.Context) (int, error) {
	ver, err := s.cache.Version(ctx)
	if err != nil {
		return 0, fmt.Errorf("users: warm snapshot: %w", err)
	}
	users, err := s.listFromBackend(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Store(ctx, ver, users); err != nil {
		return 0, fmt.Errorf("users: warm snapshot: %w", err)
	}
	return len(users), nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.backend.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("users: get %s: %w", id, err)
	}
	return u, nil
}

// Create validates f and persists a new user. A missing id is replaced by a
// random UUID.
func (s *Service) Create(ctx context.Context, f Form) (User, error) {
	if err := s.validator.Validate(f); err != nil {
		return User{}, err
	}
	u := f.User()
	if u.ID == "" {
		u.ID = s.newID()
	}
	created, err := s.backend.CreateUser(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("user created", slog.String("id", created.ID))
	return created, nil
}

// Update validates f and replaces every editable field of user id.
func (s *Service) Update(ctx context.Context, id string, f Form) (User, error) {
	if err := s.validator.Validate(f); err != nil {
		return User{}, err
	}
	updated, err := s.backend.UpdateUser(ctx, id, ReplacementPatch(f.User()))
	if err != nil {
		return User{}, fmt.Errorf("users: update %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.logger.Info("user updated", slog.String("id", id))
	return updated, nil
}

// Patch applies a partial update. Only the fields present in p are validated.
func (s *Service) Patch(ctx context.Context, id string, p Patch) (User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	merged := FormFromUser(p.Apply(current), time.UTC)
	if err := s.validator.ValidateFields(merged, p.Fields()...); err != nil {
		return User{}, err
	}
	updated, err := s.backend.UpdateUser(ctx, id, p)
	if err != nil {
		return User{}, fmt.Errorf("users: patch %s: %w", id, err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// ToggleActive flips the active flag of user id.
func (s *Service) ToggleActive(ctx context.Context, id string) (User, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	next := !current.IsActive
	updated, err := s.backend.UpdateUser(ctx, id, Patch{IsActive: &next})
	if err != nil {
		return User{}, fmt.Errorf("users: toggle %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.logger.Info("user status changed", slog.String("id", id), slog.Bool("active", updated.IsActive))
	return updated, nil
}

// Delete removes user id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("users: delete %s: %w", id, err)
	}
	s.invalidate(ctx)
	s.logger.Info("user deleted", slog.String("id", id))
	return nil
}

// Close drops a pending warmup.
func (s *Service) Close() {
	s.warmup.Cancel()
}

func (s *Service) listFromBackend(ctx context.Context) ([]User, error) {
	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("snapshot cache bump", slog.Any("error", err))
	}
	s.warmup.Trigger()
}
