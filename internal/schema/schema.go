// Package schema defines the model declaration shapes and their validation
// rules. A Definition is the unit the registry stores and the dynamic
// endpoint binder materializes handlers from.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/schemaforge/schemaforge/internal/apperr"
)

// FieldType enumerates the closed set of field types.
type FieldType string

// Supported field types.
const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
)

// Valid reports whether the type is a member of the closed enum.
func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldNumber, FieldBoolean, FieldDate:
		return true
	default:
		return false
	}
}

// Field declares one typed field of a model.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Default  any       `json:"default,omitempty"`
	Unique   bool      `json:"unique,omitempty"`
	Relation string    `json:"relation,omitempty"`
}

// Grants maps a role name to its set of permission tokens.
type Grants map[string][]string

// Definition is an admin-declared record schema plus its RBAC policy.
type Definition struct {
	Name       string    `json:"name"`
	TableName  string    `json:"tableName,omitempty"`
	Fields     []Field   `json:"fields"`
	OwnerField string    `json:"ownerField,omitempty"`
	RBAC       Grants    `json:"rbac"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PathSegment returns the URL path segment the model's endpoints live under.
// Model names are case-preserving but path-matched case-insensitively.
func (d *Definition) PathSegment() string {
	return strings.ToLower(strings.TrimSpace(d.Name))
}

// Field returns the declared field with the given name, or nil.
func (d *Definition) Field(name string) *Field {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// Clone deep-copies a definition so callers can hand out read references
// without exposing registry-owned state.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	cloned := *d
	if len(d.Fields) > 0 {
		cloned.Fields = append([]Field(nil), d.Fields...)
	}
	if d.RBAC != nil {
		grants := make(Grants, len(d.RBAC))
		for role, perms := range d.RBAC {
			grants[role] = append([]string(nil), perms...)
		}
		cloned.RBAC = grants
	}
	return &cloned
}

// Normalize trims the name and fills the derived table name default.
func (d *Definition) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	if strings.TrimSpace(d.TableName) == "" {
		d.TableName = strings.ToLower(d.Name) + "s"
	}
}

// Problems validates a definition and returns every violation found. An
// empty slice means the definition is acceptable.
func (d *Definition) Problems() []string {
	var problems []string

	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "model name is required")
	}

	if len(d.Fields) == 0 {
		problems = append(problems, "model must have at least one field")
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for i, field := range d.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("field at index %d must have a name", i))
			continue
		}
		if _, dup := seen[name]; dup {
			problems = append(problems, fmt.Sprintf("field %s is declared more than once", name))
		}
		seen[name] = struct{}{}
		if !field.Type.Valid() {
			problems = append(problems, fmt.Sprintf("field %s has invalid type: %s", name, field.Type))
		}
	}

	if owner := strings.TrimSpace(d.OwnerField); owner != "" {
		if _, clash := seen[owner]; clash {
			problems = append(problems, fmt.Sprintf("ownerField %s collides with a declared field", owner))
		}
	}

	if len(d.RBAC) == 0 {
		problems = append(problems, "model must have RBAC configuration")
	}

	return problems
}

// Validate normalizes the definition and converts any problems into a
// validation error.
func (d *Definition) Validate() error {
	d.Normalize()
	if problems := d.Problems(); len(problems) > 0 {
		return apperr.Validationf("%s", strings.Join(problems, ", "))
	}
	return nil
}

// CheckValue verifies a single value against the field's declared type.
// Nil is always acceptable; required-presence is checked separately.
func (f *Field) CheckValue(value any) error {
	if value == nil {
		return nil
	}
	switch f.Type {
	case FieldString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %s expects a string", f.Name)
		}
	case FieldNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64, uint, uint32, uint64:
		default:
			return fmt.Errorf("field %s expects a number", f.Name)
		}
	case FieldBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %s expects a boolean", f.Name)
		}
	case FieldDate:
		if err := checkDate(value); err != nil {
			return fmt.Errorf("field %s expects a date: %v", f.Name, err)
		}
	}
	return nil
}

// checkDate accepts time.Time values and RFC 3339 or date-only strings.
func checkDate(value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339, v); err == nil {
			return nil
		}
		if _, err := time.Parse("2006-01-02", v); err == nil {
			return nil
		}
		return fmt.Errorf("cannot parse %q", v)
	default:
		return fmt.Errorf("unsupported value type %T", value)
	}
}

// CheckData validates a record payload against the declared fields. When
// requireAll is set, every required field must be present. Provided values
// are always type-checked; keys without a declaration pass through untouched
// since storage is schema-less.
func (d *Definition) CheckData(data map[string]any, requireAll bool) error {
	var problems []string
	if requireAll {
		for _, field := range d.Fields {
			if !field.Required {
				continue
			}
			if _, ok := data[field.Name]; !ok {
				problems = append(problems, fmt.Sprintf("field %s is required", field.Name))
			}
		}
	}
	for key, value := range data {
		field := d.Field(key)
		if field == nil {
			continue
		}
		if err := field.CheckValue(value); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return apperr.Validationf("%s", strings.Join(problems, ", "))
	}
	return nil
}
