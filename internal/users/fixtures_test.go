package users

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func sampleUsers() []User {
	return []User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Role: RoleAdmin, IsActive: true, Skills: []string{"Go"}},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Role: RoleEditor, IsActive: false, Skills: []string{"SQL"}},
		{ID: "3", Name: "Bob Johnson", Email: "bob@corp.io", Role: RoleViewer, IsActive: true},
		{ID: "4", Name: "Alice Brown", Email: "alice@example.com", Role: RoleAdmin, IsActive: false},
		{ID: "5", Name: "Carol White", Email: "carol@corp.io", Role: RoleEditor, IsActive: true},
		{ID: "6", Name: "Dan Green", Email: "dan@example.com", Role: RoleViewer, IsActive: true},
		{ID: "7", Name: "Eve Black", Email: "eve@corp.io", Role: RoleAdmin, IsActive: true},
	}
}

func ids(users []User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

// validForm returns a form that passes every rule relative to now.
func validForm(now time.Time) Form {
	return Form{
		Name:           "Grace Hopper",
		Username:       "grace_h",
		Email:          "grace@example.com",
		Phone:          "+1 (555) 123-4567",
		Website:        "https://grace.example.com",
		Role:           string(RoleEditor),
		IsActive:       true,
		Skills:         []string{"COBOL", "Go"},
		AvailableSlots: []time.Time{now.Add(48 * time.Hour).UTC().Truncate(time.Minute)},
		Address:        FormAddress{Street: "1 Navy Yard", City: "Arlington", Zipcode: "22202"},
		Company:        FormCompany{Name: "US Navy"},
	}
}

// countingBackend wraps a Backend and counts or fails list calls.
type countingBackend struct {
	Backend
	lists atomic.Int32
	gate  chan struct{}
	fail  atomic.Bool
}

func (c *countingBackend) ListUsers(ctx context.Context) ([]User, error) {
	c.lists.Add(1)
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.fail.Load() {
		return nil, shared.Unavailable("list users", context.DeadlineExceeded)
	}
	return c.Backend.ListUsers(ctx)
}

type countingEnqueuer struct {
	calls atomic.Int32
}

func (c *countingEnqueuer) EnqueueUsersWarmup(context.Context) error {
	c.calls.Add(1)
	return nil
}
