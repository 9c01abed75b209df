package unitofwork

import (
	"slices"
	"time"
)

// Generation says who supplies a column's final value.
type Generation int

const (
	// GeneratedNever columns are always written by the caller.
	GeneratedNever Generation = iota
	// GeneratedOnCreate columns are assigned by the store on insert unless the caller supplied one
	// (serial keys, defaulted external ids, created_at).
	GeneratedOnCreate
	// GeneratedOnUpdate columns are recomputed by the store on every insert and update
	// (last-modified timestamps, concurrency tokens).
	GeneratedOnUpdate
)

func (g Generation) String() string {
	switch g {
	case GeneratedOnCreate:
		return "on_create"
	case GeneratedOnUpdate:
		return "on_update"
	default:
		return "never"
	}
}

// Role marks the columns that identify a record in the audit trail.
type Role int

const (
	RoleNone Role = iota
	RoleInternalID
	RoleExternalID
)

// Field describes one persisted column of an entity type. Fields are built with Scalar,
// Nullable, Slice or Time and are immutable afterwards.
type Field struct {
	name       string
	generation Generation
	role       Role
	key        bool

	get    func(entity any) any
	set    func(entity any, v any)
	equal  func(a, b any) bool
	clone  func(v any) any
	isZero func(v any) bool
	scan   func() (dest any, value func() (any, bool))
}

type FieldOption func(*Field)

// Generated sets the generation policy of the field.
func Generated(g Generation) FieldOption {
	return func(f *Field) { f.generation = g }
}

// InternalID marks the numeric surrogate key. It implies Key.
func InternalID() FieldOption {
	return func(f *Field) {
		f.role = RoleInternalID
		f.key = true
	}
}

// ExternalID marks the stable public identifier.
func ExternalID() FieldOption {
	return func(f *Field) { f.role = RoleExternalID }
}

// Key adds the field to the WHERE clause used for updates and deletes.
func Key() FieldOption {
	return func(f *Field) { f.key = true }
}

func (f Field) Name() string           { return f.name }
func (f Field) Generation() Generation { return f.generation }
func (f Field) Role() Role             { return f.role }
func (f Field) IsKey() bool            { return f.key }

// Get returns the current value of the field on entity.
func (f Field) Get(entity any) any { return f.get(entity) }

// Set assigns v, which must have the field's Go type, to entity.
func (f Field) Set(entity any, v any) { f.set(entity, v) }

// Equal compares two values of the field's Go type.
func (f Field) Equal(a, b any) bool { return f.equal(a, b) }

// Clone copies v so the copy shares no memory with the entity.
func (f Field) Clone(v any) any { return f.clone(v) }

// IsZero reports whether v is the zero value of the field's Go type.
func (f Field) IsZero(v any) bool { return f.isZero(v) }

// ScanTarget returns a destination suitable for pgx Scan and a function reading the scanned
// value back. The second result of value is false when the store returned NULL.
func (f Field) ScanTarget() (any, func() (any, bool)) { return f.scan() }

func newField(name string, opts []FieldOption) Field {
	f := Field{name: name}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Scalar describes a column stored in a comparable value type.
func Scalar[E any, V comparable](name string, get func(*E) V, set func(*E, V), opts ...FieldOption) Field {
	f := newField(name, opts)
	f.get = func(entity any) any { return get(entity.(*E)) }
	f.set = func(entity any, v any) { set(entity.(*E), v.(V)) }
	f.equal = func(a, b any) bool { return a.(V) == b.(V) }
	f.clone = func(v any) any { return v }
	f.isZero = func(v any) bool {
		var zero V
		return v.(V) == zero
	}
	f.scan = func() (any, func() (any, bool)) {
		dest := new(*V)
		return dest, func() (any, bool) {
			if *dest == nil {
				return nil, false
			}
			return **dest, true
		}
	}
	return f
}

// Time describes a timestamp column. Values compare with time.Time.Equal.
func Time[E any](name string, get func(*E) time.Time, set func(*E, time.Time), opts ...FieldOption) Field {
	f := Scalar(name, get, set, opts...)
	f.equal = func(a, b any) bool { return a.(time.Time).Equal(b.(time.Time)) }
	f.isZero = func(v any) bool { return v.(time.Time).IsZero() }
	return f
}

// Nullable describes a column stored behind a pointer. Values are compared and copied
// through the pointer, never by address.
func Nullable[E any, V comparable](name string, get func(*E) *V, set func(*E, *V), opts ...FieldOption) Field {
	f := newField(name, opts)
	f.get = func(entity any) any { return get(entity.(*E)) }
	f.set = func(entity any, v any) { set(entity.(*E), v.(*V)) }
	f.equal = func(a, b any) bool {
		pa, pb := a.(*V), b.(*V)
		if pa == nil || pb == nil {
			return pa == nil && pb == nil
		}
		return *pa == *pb
	}
	f.clone = func(v any) any {
		p := v.(*V)
		if p == nil {
			return p
		}
		c := *p
		return &c
	}
	f.isZero = func(v any) bool { return v.(*V) == nil }
	f.scan = func() (any, func() (any, bool)) {
		dest := new(*V)
		return dest, func() (any, bool) {
			if *dest == nil {
				return (*V)(nil), false
			}
			return *dest, true
		}
	}
	return f
}

// Slice describes an array column.
func Slice[E any, V comparable](name string, get func(*E) []V, set func(*E, []V), opts ...FieldOption) Field {
	f := newField(name, opts)
	f.get = func(entity any) any { return get(entity.(*E)) }
	f.set = func(entity any, v any) { set(entity.(*E), v.([]V)) }
	f.equal = func(a, b any) bool { return slices.Equal(a.([]V), b.([]V)) }
	f.clone = func(v any) any { return slices.Clone(v.([]V)) }
	f.isZero = func(v any) bool { return len(v.([]V)) == 0 }
	f.scan = func() (any, func() (any, bool)) {
		dest := new([]V)
		return dest, func() (any, bool) {
			if *dest == nil {
				return []V(nil), false
			}
			return *dest, true
		}
	}
	return f
}
