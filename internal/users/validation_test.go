package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

func fixedValidator(now time.Time) *Validator {
	v := NewValidator()
	v.now = func() time.Time { return now }
	return v
}

func TestValidateAcceptsValidForm(t *testing.T) {
	now := time.Now()
	assert.NoError(t, fixedValidator(now).Validate(validForm(now)))
}

func TestValidateReportsFieldPaths(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(now)

	cases := []struct {
		name    string
		mutate  func(*Form)
		key     string
		message string
	}{
		{"missing name", func(f *Form) { f.Name = "" }, "name", "Name is required"},
		{"short name", func(f *Form) { f.Name = "Al" }, "name", "Name must be at least 3 characters"},
		{"username chars", func(f *Form) { f.Username = "bad name" }, "username", "Username can only contain letters, numbers, and underscores"},
		{"email", func(f *Form) { f.Email = "nope" }, "email", "Invalid email format"},
		{"phone", func(f *Form) { f.Phone = "call me" }, "phone", "Invalid phone number format"},
		{"website", func(f *Form) { f.Website = "not a url" }, "website", "Invalid URL format"},
		{"missing website", func(f *Form) { f.Website = "" }, "website", "Website is required"},
		{"role", func(f *Form) { f.Role = "Root" }, "role", "Invalid role"},
		{"no skills", func(f *Form) { f.Skills = []string{} }, "skills", "At least one skill is required"},
		{"short skill", func(f *Form) { f.Skills = []string{"Go", "x"} }, "skills.1", "Skill must be at least 2 characters"},
		{"long skill", func(f *Form) { f.Skills = []string{"Kubernetes!"} }, "skills.0", "Skill must be at most 10 characters"},
		{"no slots", func(f *Form) { f.AvailableSlots = []time.Time{} }, "availableSlots", "At least one available slot is required"},
		{"past slot", func(f *Form) { f.AvailableSlots = []time.Time{now.Add(-time.Hour)} }, "availableSlots.0", "Available slots must be future dates"},
		{"zero slot", func(f *Form) { f.AvailableSlots = []time.Time{{}} }, "availableSlots.0", "Date is required"},
		{"street", func(f *Form) { f.Address.Street = "Oak" }, "address.street", "Street must be at least 5 characters"},
		{"city", func(f *Form) { f.Address.City = "" }, "address.city", "City is required"},
		{"zipcode", func(f *Form) { f.Address.Zipcode = "12a45" }, "address.zipcode", "Zipcode must be 5-10 digits"},
		{"company", func(f *Form) { f.Company.Name = "X" }, "company.name", "Company name must be at least 2 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm(now)
			tc.mutate(&f)
			err := v.Validate(f)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tc.message, verrs.Map()[tc.key], "errors: %v", verrs.Map())
		})
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	err := NewValidator().Validate(NewForm())
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	keys := verrs.Map()
	for _, key := range []string{"name", "username", "email", "phone", "website", "role", "skills", "availableSlots", "address.street", "address.city", "address.zipcode", "company.name"} {
		assert.Contains(t, keys, key)
	}
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateFieldsScopesErrors(t *testing.T) {
	f := validForm(time.Now())
	f.Email = "broken"
	f.Name = ""

	err := NewValidator().ValidateFields(f, "email")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, map[string]string{"email": "Invalid email format"}, verrs.Map())

	assert.NoError(t, NewValidator().ValidateFields(f, "role", "skills"))
}

func TestSplitNamespace(t *testing.T) {
	assert.Equal(t, []string{"address", "city"}, splitNamespace("Form.address.city"))
	assert.Equal(t, []string{"skills", "3"}, splitNamespace("Form.skills[3]"))
	assert.Equal(t, []string{"name"}, splitNamespace("name"))
}
