package domain

import "fmt"

// CourseType distinguishes how a course is delivered.
type CourseType string

const (
	CourseRecord      CourseType = "record"
	CourseInteractive CourseType = "interactive"
)

// IsValid reports whether t is a known course type.
func (t CourseType) IsValid() bool {
	return t == CourseRecord || t == CourseInteractive
}

// Course is a single course offering.
type Course struct {
	Entity
	Name string
	Type CourseType
	Link string
}

// NewCourse creates a transient course of the given type.
func NewCourse(courseType CourseType, name, link string) (*Course, error) {
	if !courseType.IsValid() {
		return nil, fmt.Errorf("unknown course type %q (must be %q or %q)", courseType, CourseRecord, CourseInteractive)
	}
	return &Course{Name: name, Type: courseType, Link: link}, nil
}

func (c *Course) Kind() Kind { return KindCourse }

// Values returns (name, type, link).
func (c *Course) Values() []any { return []any{c.Name, string(c.Type), c.Link} }

// Targets returns pointers to (name, type, link).
func (c *Course) Targets() []any { return []any{&c.Name, &c.Type, &c.Link} }

// Clone copies the attributes into a new transient course.
func (c *Course) Clone() *Course {
	return &Course{Name: c.Name, Type: c.Type, Link: c.Link}
}

func (c *Course) MarkNew(r Registrar) error     { return r.RegisterNew(c) }
func (c *Course) MarkDirty(r Registrar) error   { return r.RegisterDirty(c) }
func (c *Course) MarkRemoved(r Registrar) error { return r.RegisterRemoved(c) }

// Category groups courses and other categories.
type Category struct {
	Entity
	Name string
}

// NewCategory creates a transient category.
func NewCategory(name string) *Category {
	return &Category{Name: name}
}

func (c *Category) Kind() Kind { return KindCategory }

// Values returns (name).
func (c *Category) Values() []any { return []any{c.Name} }

// Targets returns pointers to (name).
func (c *Category) Targets() []any { return []any{&c.Name} }

func (c *Category) MarkNew(r Registrar) error     { return r.RegisterNew(c) }
func (c *Category) MarkDirty(r Registrar) error   { return r.RegisterDirty(c) }
func (c *Category) MarkRemoved(r Registrar) error { return r.RegisterRemoved(c) }
