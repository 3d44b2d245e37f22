package users

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phonePattern    = regexp.MustCompile(`^[+]?[\d\s\-()]+$`)
	zipcodePattern  = regexp.MustCompile(`^[0-9]{5,10}$`)
)

// FieldError is a message attached to a field path such as
// ["address", "city"] or ["skills", "0"].
type FieldError struct {
	Path    []string
	Message string
}

// Key joins the path with dots.
func (e FieldError) Key() string {
	return strings.Join(e.Path, ".")
}

// ValidationErrors is the structured result of a failed validation.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Key()+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes ValidationErrors match shared.ErrValidation.
func (v ValidationErrors) Is(target error) bool {
	return target == shared.ErrValidation
}

// Map returns the messages keyed by dotted field path.
func (v ValidationErrors) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		if _, exists := out[fe.Key()]; !exists {
			out[fe.Key()] = fe.Message
		}
	}
	return out
}

// For returns the first message for the given path.
func (v ValidationErrors) For(path ...string) string {
	key := strings.Join(path, ".")
	for _, fe := range v {
		if fe.Key() == key {
			return fe.Message
		}
	}
	return ""
}

// Validator checks user forms against the user record rules.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator builds a Validator with the custom user rules registered.
func NewValidator() *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), now: time.Now}
	v.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v.validate, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v.validate, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v.validate, "zipcode", func(fl validator.FieldLevel) bool {
		return zipcodePattern.MatchString(fl.Field().String())
	})
	mustRegister(v.validate, "role", func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	mustRegister(v.validate, "future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && t.After(v.now())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("users: register validation %q: %v", tag, err))
	}
}

// Validate returns nil or ValidationErrors describing every invalid field.
func (v *Validator) Validate(f Form) error {
	var out ValidationErrors
	if err := v.validate.Struct(f); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range fieldErrs {
			path := splitNamespace(fe.Namespace())
			out = append(out, FieldError{Path: path, Message: messageFor(path, fe)})
		}
	}
	out = append(out, f.parseErrors...)
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateFields validates f but only reports errors under the given
// top-level fields.
func (v *Validator) ValidateFields(f Form, fields ...string) error {
	err := v.Validate(f)
	all, ok := err.(ValidationErrors)
	if !ok {
		return err
	}
	keep := make(map[string]bool, len(fields))
	for _, field := range fields {
		keep[field] = true
	}
	var out ValidationErrors
	for _, fe := range all {
		if len(fe.Path) > 0 && keep[fe.Path[0]] {
			out = append(out, fe)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// splitNamespace turns "Form.address.city" or "Form.skills[1]" into a path
// without the root struct name.
func splitNamespace(ns string) []string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return []string{ns}
	}
	var path []string
	for _, segment := range strings.Split(rest, ".") {
		name, index, hasIndex := strings.Cut(segment, "[")
		path = append(path, name)
		if hasIndex {
			path = append(path, strings.TrimSuffix(index, "]"))
		}
	}
	return path
}

var fieldLabels = map[string]string{
	"name":            "Name",
	"username":        "Username",
	"email":           "Email",
	"phone":           "Phone",
	"website":         "Website URL",
	"role":            "Role",
	"address.street":  "Street",
	"address.city":    "City",
	"address.zipcode": "Zipcode",
	"company.name":    "Company name",
	"skills[]":        "Skill",
}

var messageOverrides = map[string]string{
	"skills|required":           "At least one skill is required",
	"skills|min":                "At least one skill is required",
	"availableSlots|required":   "At least one available slot is required",
	"availableSlots|min":        "At least one available slot is required",
	"availableSlots[]|required": "Date is required",
	"website|required":          "Website is required",
}

func messageFor(path []string, fe validator.FieldError) string {
	key := messageKey(path)
	if msg, ok := messageOverrides[key+"|"+fe.Tag()]; ok {
		return msg
	}
	label := fieldLabels[key]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL format"
	case "username":
		return "Username can only contain letters, numbers, and underscores"
	case "phone":
		return "Invalid phone number format"
	case "zipcode":
		return "Zipcode must be 5-10 digits"
	case "role":
		return "Invalid role"
	case "future":
		return "Available slots must be future dates"
	default:
		return label + " is invalid"
	}
}

// messageKey replaces numeric path segments with "[]" so element rules share
// one message.
func messageKey(path []string) string {
	var b strings.Builder
	for i, segment := range path {
		if _, err := strconv.Atoi(segment); err == nil {
			b.WriteString("[]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}
