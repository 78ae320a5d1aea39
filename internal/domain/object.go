// Package domain defines the persisted catalog entities and the contract
// every one of them satisfies so the mapper and unit of work can store it
// without knowing its concrete type.
package domain

// Kind identifies an entity type. It is the key a schema is registered
// under, and relation kinds are built from the two kinds they join.
type Kind string

const (
	KindTeacher  Kind = "teacher"
	KindStudent  Kind = "student"
	KindCourse   Kind = "course"
	KindCategory Kind = "category"
)

// Relation kinds, named {child}_{parent}.
var (
	KindCourseCategory   = RelationKind(KindCourse, KindCategory)
	KindCategoryCategory = RelationKind(KindCategory, KindCategory)
	KindStudentCourse    = RelationKind(KindStudent, KindCourse)
	KindTeacherCourse    = RelationKind(KindTeacher, KindCourse)
)

// RelationKind returns the kind of the relation joining child to parent.
func RelationKind(child, parent Kind) Kind {
	return Kind(string(child) + "_" + string(parent))
}

// State is the lifecycle flag of an object relative to storage.
type State int

const (
	// StateTransient objects are not tracked by any unit of work.
	StateTransient State = iota
	// StateNew objects are waiting to be inserted.
	StateNew
	// StateDirty objects are waiting to have their row overwritten.
	StateDirty
	// StateClean objects match their stored row.
	StateClean
	// StateRemoved objects are waiting to have their row deleted.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateTransient:
		return "transient"
	case StateNew:
		return "new"
	case StateDirty:
		return "dirty"
	case StateClean:
		return "clean"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Object is implemented by every persisted entity.
//
// Values and Targets both follow the declared field order of the kind;
// that order is the column order of the kind's table.
type Object interface {
	Kind() Kind
	ID() int64
	SetID(id int64)
	// Values returns the current attribute values, used as the row payload
	// for insert and update.
	Values() []any
	// Targets returns pointers to the attributes, used to scan a row.
	Targets() []any
	State() State
	SetState(s State)
}

// Registrar records lifecycle transitions without performing I/O.
// The unit of work implements it.
type Registrar interface {
	RegisterNew(obj Object) error
	RegisterDirty(obj Object) error
	RegisterRemoved(obj Object) error
}

// Entity carries the surrogate key and lifecycle flag shared by all
// objects. An id of 0 means the object has not been inserted yet.
type Entity struct {
	id    int64
	state State
}

// ID returns the surrogate key, or 0 before the first insert.
func (e *Entity) ID() int64 { return e.id }

// SetID assigns the surrogate key.
func (e *Entity) SetID(id int64) { e.id = id }

// State returns the lifecycle flag.
func (e *Entity) State() State { return e.state }

// SetState replaces the lifecycle flag.
func (e *Entity) SetState(s State) { e.state = s }

// Persisted reports whether the object has been assigned a key.
func (e *Entity) Persisted() bool { return e.id != 0 }
