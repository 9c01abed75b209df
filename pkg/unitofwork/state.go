package unitofwork

// State is the lifecycle state of a tracked record.
type State int

const (
	Unchanged State = iota
	Created
	Updated
	Deleted
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Updated:
		return "Updated"
	case Deleted:
		return "Deleted"
	default:
		return "Unchanged"
	}
}
