package users

import "time"

// Role is the closed set of operator roles a user can hold.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleEditor Role = "Editor"
	RoleViewer Role = "Viewer"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleAdmin, RoleEditor, RoleViewer}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	for _, candidate := range Roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// Address is the postal address of a user.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}

// Company identifies the employer of a user.
type Company struct {
	Name string `json:"name"`
}

// User is a managed user record.
type User struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone"`
	Website        string      `json:"website"`
	Role           Role        `json:"role"`
	IsActive       bool        `json:"isActive"`
	Skills         []string    `json:"skills"`
	AvailableSlots []time.Time `json:"availableSlots"`
	Address        *Address    `json:"address,omitempty"`
	Company        *Company    `json:"company,omitempty"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name           *string      `json:"name,omitempty"`
	Username       *string      `json:"username,omitempty"`
	Email          *string      `json:"email,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	Website        *string      `json:"website,omitempty"`
	Role           *Role        `json:"role,omitempty"`
	IsActive       *bool        `json:"isActive,omitempty"`
	Skills         *[]string    `json:"skills,omitempty"`
	AvailableSlots *[]time.Time `json:"availableSlots,omitempty"`
	Address        *Address     `json:"address,omitempty"`
	Company        *Company     `json:"company,omitempty"`
}

// Apply returns a replacement record with the patch applied. u is not modified.
func (p Patch) Apply(u User) User {
	out := u.clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Username != nil {
		out.Username = *p.Username
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Phone != nil {
		out.Phone = *p.Phone
	}
	if p.Website != nil {
		out.Website = *p.Website
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.IsActive != nil {
		out.IsActive = *p.IsActive
	}
	if p.Skills != nil {
		out.Skills = append([]string(nil), (*p.Skills)...)
	}
	if p.AvailableSlots != nil {
		out.AvailableSlots = append([]time.Time(nil), (*p.AvailableSlots)...)
	}
	if p.Address != nil {
		addr := *p.Address
		out.Address = &addr
	}
	if p.Company != nil {
		company := *p.Company
		out.Company = &company
	}
	return out
}

// ReplacementPatch builds a patch that overwrites every editable field of u.
func ReplacementPatch(u User) Patch {
	skills := append([]string(nil), u.Skills...)
	slots := append([]time.Time(nil), u.AvailableSlots...)
	p := Patch{
		Name:           &u.Name,
		Username:       &u.Username,
		Email:          &u.Email,
		Phone:          &u.Phone,
		Website:        &u.Website,
		Role:           &u.Role,
		IsActive:       &u.IsActive,
		Skills:         &skills,
		AvailableSlots: &slots,
	}
	if u.Address != nil {
		addr := *u.Address
		p.Address = &addr
	}
	if u.Company != nil {
		company := *u.Company
		p.Company = &company
	}
	return p
}

func (u User) clone() User {
	out := u
	out.Skills = append([]string(nil), u.Skills...)
	out.AvailableSlots = append([]time.Time(nil), u.AvailableSlots...)
	if u.Address != nil {
		addr := *u.Address
		out.Address = &addr
	}
	if u.Company != nil {
		company := *u.Company
		out.Company = &company
	}
	return out
}

// Fields lists the JSON names of the fields set in the patch.
func (p Patch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Username != nil, "username")
	add(p.Email != nil, "email")
	add(p.Phone != nil, "phone")
	add(p.Website != nil, "website")
	add(p.Role != nil, "role")
	add(p.IsActive != nil, "isActive")
	add(p.Skills != nil, "skills")
	add(p.AvailableSlots != nil, "availableSlots")
	add(p.Address != nil, "address")
	add(p.Company != nil, "company")
	return fields
}
