package unitofwork

import (
	"fmt"

	"github.com/iota-uz/accounts/pkg/serrors"
)

var (
	ErrAlreadyTracked    = serrors.NewError("UOW_ALREADY_TRACKED", "entity is already tracked", "")
	ErrNotTracked        = serrors.NewError("UOW_NOT_TRACKED", "entity is not tracked", "")
	ErrDescriptorInvalid = serrors.NewError("UOW_DESCRIPTOR_INVALID", "entity does not match its descriptor", "")
)

type tracked struct {
	entity Entity
	desc   *Descriptor
	state  State
	prior  []any
}

// UnitOfWork tracks the entities loaded or created by one request and the way they changed.
// It belongs to a single request scope and is not safe for concurrent use; a commit call owns
// it exclusively until it returns.
type UnitOfWork struct {
	records []*tracked
	index   map[Entity]*tracked
}

func New() *UnitOfWork {
	return &UnitOfWork{index: map[Entity]*tracked{}}
}

// Attach starts tracking an entity loaded from the store. Its current values become the prior
// snapshot that later modifications are compared against.
func (u *UnitOfWork) Attach(e Entity) error {
	d, err := u.admit(e)
	if err != nil {
		return err
	}
	u.push(&tracked{entity: e, desc: d, state: Unchanged, prior: d.snapshot(e)})
	return nil
}

// Add starts tracking a new entity that will be inserted on commit.
func (u *UnitOfWork) Add(e Entity) error {
	d, err := u.admit(e)
	if err != nil {
		return err
	}
	u.push(&tracked{entity: e, desc: d, state: Created})
	return nil
}

// Remove marks an attached entity for deletion. Removing an entity that was added in this
// unit of work simply forgets it.
func (u *UnitOfWork) Remove(e Entity) error {
	t, ok := u.index[e]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, e.Descriptor().Name())
	}
	if t.state == Created {
		u.forget(t)
		return nil
	}
	t.state = Deleted
	return nil
}

// Detach stops tracking an entity without writing anything for it.
func (u *UnitOfWork) Detach(e Entity) {
	if t, ok := u.index[e]; ok {
		u.forget(t)
	}
}

// State returns the lifecycle state the entity would be committed with.
func (u *UnitOfWork) State(e Entity) (State, bool) {
	t, ok := u.index[e]
	if !ok {
		return Unchanged, false
	}
	return t.record().State, true
}

// Len returns the number of tracked entities, changed or not.
func (u *UnitOfWork) Len() int { return len(u.records) }

// Records snapshots every tracked entity in tracking order. Values are copied, so mutating an
// entity afterwards does not affect the returned records.
func (u *UnitOfWork) Records() []Record {
	out := make([]Record, 0, len(u.records))
	for _, t := range u.records {
		out = append(out, t.record())
	}
	return out
}

// HasChanges reports whether any tracked entity would be written on commit.
func (u *UnitOfWork) HasChanges() bool {
	for _, t := range u.records {
		if t.record().State != Unchanged {
			return true
		}
	}
	return false
}

// AcceptChanges is called after a successful commit. It assigns the store-generated values to
// their entities, forgets deleted entities and re-baselines the rest as Unchanged.
func (u *UnitOfWork) AcceptChanges(generated map[Entity]map[string]any) {
	for _, t := range append([]*tracked(nil), u.records...) {
		if t.state == Deleted {
			u.forget(t)
			continue
		}
		if values, ok := generated[t.entity]; ok {
			for name, v := range values {
				if i := t.desc.FieldIndex(name); i >= 0 {
					t.desc.fields[i].set(t.entity, v)
				}
			}
		}
		t.state = Unchanged
		t.prior = t.desc.snapshot(t.entity)
	}
}

func (u *UnitOfWork) admit(e Entity) (*Descriptor, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil entity", ErrDescriptorInvalid)
	}
	d := e.Descriptor()
	if d == nil || d.accepts == nil || !d.accepts(e) {
		return nil, fmt.Errorf("%w: %T", ErrDescriptorInvalid, e)
	}
	if _, ok := u.index[e]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyTracked, d.Name())
	}
	return d, nil
}

func (u *UnitOfWork) push(t *tracked) {
	u.records = append(u.records, t)
	u.index[t.entity] = t
}

func (u *UnitOfWork) forget(t *tracked) {
	delete(u.index, t.entity)
	for i, r := range u.records {
		if r == t {
			u.records = append(u.records[:i], u.records[i+1:]...)
			return
		}
	}
}

func (t *tracked) record() Record {
	r := Record{Entity: t.entity, Descriptor: t.desc, State: t.state, prior: t.prior}
	if t.state == Deleted {
		return r
	}
	r.current = t.desc.snapshot(t.entity)
	if t.state == Unchanged && t.modified(r.current) {
		r.State = Updated
	}
	return r
}

// modified ignores columns the store recomputes on update.
func (t *tracked) modified(current []any) bool {
	for i, f := range t.desc.fields {
		if f.generation == GeneratedOnUpdate {
			continue
		}
		if !f.equal(t.prior[i], current[i]) {
			return true
		}
	}
	return false
}
