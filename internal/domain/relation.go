package domain

// Relation is one edge of a many-to-many association, stored as its own
// row with its own surrogate key. Nothing prevents two edges with the
// same (child, parent) pair.
type Relation struct {
	Entity
	kind     Kind
	ChildID  int64
	ParentID int64

	child  Object
	parent Object
}

// NewRelation creates an edge of the given relation kind from known ids.
func NewRelation(kind Kind, childID, parentID int64) *Relation {
	return &Relation{kind: kind, ChildID: childID, ParentID: parentID}
}

// Link creates an edge between two objects. The ids are read from the
// objects when the row is written, so endpoints inserted earlier in the
// same commit contribute their new keys.
func Link(child, parent Object) *Relation {
	return &Relation{
		kind:     RelationKind(child.Kind(), parent.Kind()),
		ChildID:  child.ID(),
		ParentID: parent.ID(),
		child:    child,
		parent:   parent,
	}
}

func NewCourseCategory(courseID, categoryPID int64) *Relation {
	return NewRelation(KindCourseCategory, courseID, categoryPID)
}

func NewCategoryCategory(categoryID, categoryPID int64) *Relation {
	return NewRelation(KindCategoryCategory, categoryID, categoryPID)
}

func NewStudentCourse(studentID, coursePID int64) *Relation {
	return NewRelation(KindStudentCourse, studentID, coursePID)
}

func NewTeacherCourse(teacherID, coursePID int64) *Relation {
	return NewRelation(KindTeacherCourse, teacherID, coursePID)
}

func (e *Relation) Kind() Kind { return e.kind }

// Values returns (child_id, parent_id), refreshed from linked objects.
func (e *Relation) Values() []any {
	if e.child != nil {
		e.ChildID = e.child.ID()
	}
	if e.parent != nil {
		e.ParentID = e.parent.ID()
	}
	return []any{e.ChildID, e.ParentID}
}

// Targets returns pointers to (child_id, parent_id).
func (e *Relation) Targets() []any { return []any{&e.ChildID, &e.ParentID} }

func (e *Relation) MarkNew(r Registrar) error     { return r.RegisterNew(e) }
func (e *Relation) MarkDirty(r Registrar) error   { return r.RegisterDirty(e) }
func (e *Relation) MarkRemoved(r Registrar) error { return r.RegisterRemoved(e) }
