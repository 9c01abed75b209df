package unitofwork

import (
	"fmt"
	"strings"
)

// Entity is implemented by every type tracked by a UnitOfWork. Descriptor must return the
// same package-level table on every call.
type Entity interface {
	Descriptor() *Descriptor
}

// Descriptor is the static field table of one entity type.
type Descriptor struct {
	name     string
	table    string
	fields   []Field
	keys     []int
	internal int
	external int
	accepts  func(any) bool
}

// NewDescriptor builds the field table for *E. It panics on an invalid table, so descriptors
// are declared as package-level variables and fail at init.
func NewDescriptor[E any](name, table string, fields ...Field) *Descriptor {
	d, err := newDescriptor(name, table, fields)
	if err != nil {
		panic(err)
	}
	d.accepts = func(entity any) bool {
		_, ok := entity.(*E)
		return ok
	}
	return d
}

func newDescriptor(name, table string, fields []Field) (*Descriptor, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("unitofwork: descriptor name is required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("unitofwork: descriptor %s: table is required", name)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("unitofwork: descriptor %s: no fields", name)
	}

	d := &Descriptor{
		name:     name,
		table:    table,
		fields:   fields,
		internal: -1,
		external: -1,
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.name == "" {
			return nil, fmt.Errorf("unitofwork: descriptor %s: field %d has no name", name, i)
		}
		if _, dup := seen[f.name]; dup {
			return nil, fmt.Errorf("unitofwork: descriptor %s: duplicate field %q", name, f.name)
		}
		seen[f.name] = struct{}{}

		if f.key {
			d.keys = append(d.keys, i)
		}
		switch f.role {
		case RoleInternalID:
			if d.internal >= 0 {
				return nil, fmt.Errorf("unitofwork: descriptor %s: more than one internal id", name)
			}
			d.internal = i
		case RoleExternalID:
			if d.external >= 0 {
				return nil, fmt.Errorf("unitofwork: descriptor %s: more than one external id", name)
			}
			d.external = i
		}
		if f.key && f.generation == GeneratedOnUpdate {
			return nil, fmt.Errorf("unitofwork: descriptor %s: key %q cannot be regenerated on update", name, f.name)
		}
	}
	if len(d.keys) == 0 {
		return nil, fmt.Errorf("unitofwork: descriptor %s: at least one key field is required", name)
	}
	return d, nil
}

func (d *Descriptor) Name() string  { return d.name }
func (d *Descriptor) Table() string { return d.table }

// Fields returns the fields in declaration order. The slice must not be modified.
func (d *Descriptor) Fields() []Field { return d.fields }

// Keys returns the indexes of the key fields.
func (d *Descriptor) Keys() []int { return d.keys }

// InternalID returns the index of the internal id field, or -1.
func (d *Descriptor) InternalID() int { return d.internal }

// ExternalID returns the index of the external id field, or -1.
func (d *Descriptor) ExternalID() int { return d.external }

// FieldIndex returns the position of the named field, or -1.
func (d *Descriptor) FieldIndex(name string) int {
	for i, f := range d.fields {
		if f.name == name {
			return i
		}
	}
	return -1
}

func (d *Descriptor) snapshot(entity any) []any {
	out := make([]any, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.clone(f.get(entity))
	}
	return out
}
