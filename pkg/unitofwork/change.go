package unitofwork

// Record is a point-in-time view of one tracked entity, as produced by UnitOfWork.Records.
type Record struct {
	Entity     Entity
	Descriptor *Descriptor
	State      State

	prior   []any
	current []any
}

// ChangeDescriptor classifies a single field of a record about to be written.
type ChangeDescriptor struct {
	Field string
	Role  Role
	Key   bool

	Prior    any
	HasPrior bool

	Current    any
	HasCurrent bool

	// StoreGenerated is set when the store, not the caller, supplies the final value.
	StoreGenerated bool
	// Modified is only ever set for Updated records.
	Modified bool
	// Pending is set for store-generated fields whose final value is not known yet. A
	// caller-supplied value for a column generated on create is already final.
	Pending bool
}

// Changes returns one descriptor per field in declaration order. Unchanged records yield nil.
func (r Record) Changes() []ChangeDescriptor {
	if r.State == Unchanged {
		return nil
	}
	fields := r.Descriptor.fields
	out := make([]ChangeDescriptor, len(fields))
	for i, f := range fields {
		c := ChangeDescriptor{
			Field:          f.name,
			Role:           f.role,
			Key:            f.key,
			StoreGenerated: storeGenerated(f.generation, r.State),
		}
		if r.State == Updated || r.State == Deleted {
			c.Prior, c.HasPrior = r.prior[i], true
		}
		if r.State == Created || r.State == Updated {
			c.Current, c.HasCurrent = r.current[i], true
		}
		if r.State == Updated && f.generation != GeneratedOnUpdate {
			c.Modified = !f.equal(c.Prior, c.Current)
		}
		c.Pending = r.IsPending(i)
		out[i] = c
	}
	return out
}

// IsPending reports whether field i of the record has a value only the store can provide.
func (r Record) IsPending(i int) bool {
	if r.State != Created && r.State != Updated {
		return false
	}
	f := r.Descriptor.fields[i]
	if !storeGenerated(f.generation, r.State) {
		return false
	}
	if f.generation == GeneratedOnCreate {
		return f.isZero(r.current[i])
	}
	return true
}

// PriorKey returns the key values the record was loaded with, for Updated and Deleted records.
func (r Record) PriorKey() []any {
	out := make([]any, 0, len(r.Descriptor.keys))
	for _, i := range r.Descriptor.keys {
		out = append(out, r.prior[i])
	}
	return out
}

func storeGenerated(g Generation, s State) bool {
	switch g {
	case GeneratedOnCreate:
		return s == Created
	case GeneratedOnUpdate:
		return s == Created || s == Updated
	default:
		return false
	}
}

// Current returns the value field i held when the record was taken. It is nil for Deleted
// records.
func (r Record) Current(i int) any {
	if r.current == nil {
		return nil
	}
	return r.current[i]
}
