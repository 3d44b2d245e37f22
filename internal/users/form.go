package users

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SlotInputLayout is the datetime-local format used by the edit form.
const SlotInputLayout = "2006-01-02T15:04"

// FormAddress is the address part of a Form.
type FormAddress struct {
	Street  string `json:"street" validate:"required,min=5,max=100"`
	City    string `json:"city" validate:"required,min=2,max=50"`
	Zipcode string `json:"zipcode" validate:"required,zipcode"`
}

// FormCompany is the company part of a Form.
type FormCompany struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// Form carries operator input for creating or editing a user.
type Form struct {
	ID             string      `json:"-"`
	Name           string      `json:"name" validate:"required,min=3,max=50"`
	Username       string      `json:"username" validate:"required,min=3,max=20,username"`
	Email          string      `json:"email" validate:"required,email,max=100"`
	Phone          string      `json:"phone" validate:"required,max=20,phone"`
	Website        string      `json:"website" validate:"required,url,max=100"`
	Role           string      `json:"role" validate:"required,role"`
	IsActive       bool        `json:"isActive"`
	Skills         []string    `json:"skills" validate:"required,min=1,dive,min=2,max=10"`
	AvailableSlots []time.Time `json:"availableSlots" validate:"required,min=1,dive,required,future"`
	Address        FormAddress `json:"address"`
	Company        FormCompany `json:"company"`

	// SlotInputs keeps the raw datetime-local values for re-rendering.
	SlotInputs  []string         `json:"-"`
	parseErrors ValidationErrors `json:"-"`
}

// NewForm returns the blank create form.
func NewForm() Form {
	return Form{Skills: []string{}, AvailableSlots: []time.Time{}}
}

// FormFromUser prepares an edit form for u. Slots are shown in loc.
func FormFromUser(u User, loc *time.Location) Form {
	f := Form{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		Phone:          u.Phone,
		Website:        u.Website,
		Role:           string(u.Role),
		IsActive:       u.IsActive,
		Skills:         append([]string{}, u.Skills...),
		AvailableSlots: append([]time.Time{}, u.AvailableSlots...),
	}
	for _, slot := range u.AvailableSlots {
		f.SlotInputs = append(f.SlotInputs, slot.In(location(loc)).Format(SlotInputLayout))
	}
	if u.Address != nil {
		f.Address = FormAddress(*u.Address)
	}
	if u.Company != nil {
		f.Company = FormCompany(*u.Company)
	}
	return f
}

// ParseForm reads a submitted HTML form. Blank skill and slot rows are
// dropped; slots are read in loc and stored as UTC instants.
func ParseForm(values url.Values, loc *time.Location) Form {
	f := Form{
		Name:     strings.TrimSpace(values.Get("name")),
		Username: strings.TrimSpace(values.Get("username")),
		Email:    strings.TrimSpace(values.Get("email")),
		Phone:    strings.TrimSpace(values.Get("phone")),
		Website:  strings.TrimSpace(values.Get("website")),
		Role:     values.Get("role"),
		IsActive: checkbox(values.Get("isActive")),
		Address: FormAddress{
			Street:  strings.TrimSpace(values.Get("address.street")),
			City:    strings.TrimSpace(values.Get("address.city")),
			Zipcode: strings.TrimSpace(values.Get("address.zipcode")),
		},
		Company: FormCompany{Name: strings.TrimSpace(values.Get("company.name"))},
	}
	f.Skills = []string{}
	for _, skill := range values["skills"] {
		if skill = strings.TrimSpace(skill); skill != "" {
			f.Skills = append(f.Skills, skill)
		}
	}
	f.AvailableSlots = []time.Time{}
	for _, raw := range values["availableSlots"] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		idx := len(f.SlotInputs)
		f.SlotInputs = append(f.SlotInputs, raw)
		slot, err := time.ParseInLocation(SlotInputLayout, raw, location(loc))
		if err != nil {
			f.parseErrors = append(f.parseErrors, FieldError{
				Path:    []string{"availableSlots", strconv.Itoa(idx)},
				Message: "Invalid date",
			})
			continue
		}
		f.AvailableSlots = append(f.AvailableSlots, slot.UTC())
	}
	return f
}

// User converts the form into a record. The ID is carried over.
func (f Form) User() User {
	addr := Address(f.Address)
	company := Company(f.Company)
	return User{
		ID:             f.ID,
		Name:           f.Name,
		Username:       f.Username,
		Email:          f.Email,
		Phone:          f.Phone,
		Website:        f.Website,
		Role:           Role(f.Role),
		IsActive:       f.IsActive,
		Skills:         append([]string{}, f.Skills...),
		AvailableSlots: append([]time.Time{}, f.AvailableSlots...),
		Address:        &addr,
		Company:        &company,
	}
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
