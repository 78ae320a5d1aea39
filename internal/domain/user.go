package domain

import "fmt"

// User holds the attributes shared by teachers and students.
type User struct {
	Entity
	FirstName string
	LastName  string
}

// Values returns (first_name, last_name).
func (u *User) Values() []any { return []any{u.FirstName, u.LastName} }

// Targets returns pointers to (first_name, last_name).
func (u *User) Targets() []any { return []any{&u.FirstName, &u.LastName} }

// FullName joins the first and last name.
func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

// Profile exposes the shared user attributes of a Teacher or Student.
func (u *User) Profile() *User { return u }

// Person is a Teacher or a Student.
type Person interface {
	Object
	Profile() *User
}

// Teacher teaches courses.
type Teacher struct {
	User
}

// NewTeacher creates a transient teacher.
func NewTeacher(firstName, lastName string) *Teacher {
	return &Teacher{User: User{FirstName: firstName, LastName: lastName}}
}

func (t *Teacher) Kind() Kind { return KindTeacher }

func (t *Teacher) MarkNew(r Registrar) error     { return r.RegisterNew(t) }
func (t *Teacher) MarkDirty(r Registrar) error   { return r.RegisterDirty(t) }
func (t *Teacher) MarkRemoved(r Registrar) error { return r.RegisterRemoved(t) }

// Student enrolls in courses.
type Student struct {
	User
}

// NewStudent creates a transient student.
func NewStudent(firstName, lastName string) *Student {
	return &Student{User: User{FirstName: firstName, LastName: lastName}}
}

func (s *Student) Kind() Kind { return KindStudent }

func (s *Student) MarkNew(r Registrar) error     { return r.RegisterNew(s) }
func (s *Student) MarkDirty(r Registrar) error   { return r.RegisterDirty(s) }
func (s *Student) MarkRemoved(r Registrar) error { return r.RegisterRemoved(s) }

// NewUser creates a teacher or student depending on kind.
func NewUser(kind Kind, firstName, lastName string) (Person, error) {
	switch kind {
	case KindTeacher:
		return NewTeacher(firstName, lastName), nil
	case KindStudent:
		return NewStudent(firstName, lastName), nil
	default:
		return nil, fmt.Errorf("unknown user kind %q (must be %q or %q)", kind, KindTeacher, KindStudent)
	}
}

var (
	_ Person = (*Teacher)(nil)
	_ Person = (*Student)(nil)
)
