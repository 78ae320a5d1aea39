package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/georgekorob/patterns-project/internal/domain"
)

// Builder accumulates catalog rows and inserts them in dependency order
// with plain SQL, bypassing the unit of work.
type Builder struct {
	t          *testing.T
	db         *sql.DB
	categories []categoryData
	courses    []courseData
	teachers   []personData
	students   []personData
	ids        map[string]int64
}

// NewBuilder creates a builder for the given connection.
func NewBuilder(t *testing.T, db *sql.DB) *Builder {
	t.Helper()
	return &Builder{t: t, db: db, ids: make(map[string]int64)}
}

// WithCategory adds a category.
func (b *Builder) WithCategory(name string, opts ...CategoryOption) *Builder {
	c := categoryData{name: name}
	for _, opt := range opts {
		opt(&c)
	}
	b.categories = append(b.categories, c)
	return b
}

// WithCourse adds a course.
func (b *Builder) WithCourse(name string, opts ...CourseOption) *Builder {
	c := defaultCourse(name)
	for _, opt := range opts {
		opt(&c)
	}
	b.courses = append(b.courses, c)
	return b
}

// WithTeacher adds a teacher.
func (b *Builder) WithTeacher(first string, opts ...PersonOption) *Builder {
	b.teachers = append(b.teachers, newPerson(first, opts))
	return b
}

// WithStudent adds a student.
func (b *Builder) WithStudent(first string, opts ...PersonOption) *Builder {
	b.students = append(b.students, newPerson(first, opts))
	return b
}

func newPerson(first string, opts []PersonOption) personData {
	p := personData{first: first}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Build inserts everything: categories, courses, people, then the edges.
func (b *Builder) Build() *Builder {
	b.t.Helper()
	for _, c := range b.categories {
		id := b.insert(`INSERT INTO category (name) VALUES (?)`, c.name)
		b.ids[key(domain.KindCategory, c.name)] = id
		if c.parent != "" {
			b.edge("category_category", "category_id", "category_pid",
				id, b.ID(domain.KindCategory, c.parent))
		}
	}
	for _, c := range b.courses {
		id := b.insert(`INSERT INTO course (name, type, link) VALUES (?, ?, ?)`, c.name, c.courseType, c.link)
		b.ids[key(domain.KindCourse, c.name)] = id
		for _, category := range c.categories {
			b.edge("course_category", "course_id", "category_pid",
				id, b.ID(domain.KindCategory, category))
		}
	}
	b.insertPeople(domain.KindTeacher, b.teachers)
	b.insertPeople(domain.KindStudent, b.students)
	return b
}

// ID returns the id assigned to the named row by Build.
func (b *Builder) ID(kind domain.Kind, name string) int64 {
	b.t.Helper()
	id, ok := b.ids[key(kind, name)]
	require.True(b.t, ok, "no %s named %q", kind, name)
	return id
}

func key(kind domain.Kind, name string) string {
	return string(kind) + ":" + name
}

func (b *Builder) insertPeople(kind domain.Kind, people []personData) {
	b.t.Helper()
	for _, p := range people {
		id := b.insert(fmt.Sprintf(`INSERT INTO %s (first_name, last_name) VALUES (?, ?)`, kind), p.first, p.last)
		b.ids[key(kind, p.first)] = id
		for _, course := range p.courses {
			b.edge(string(kind)+"_course", string(kind)+"_id", "course_pid",
				id, b.ID(domain.KindCourse, course))
		}
	}
}

func (b *Builder) insert(query string, args ...any) int64 {
	b.t.Helper()
	res, err := b.db.Exec(query, args...)
	require.NoError(b.t, err)
	id, err := res.LastInsertId()
	require.NoError(b.t, err)
	return id
}

func (b *Builder) edge(table, childColumn, parentColumn string, childID, parentID int64) {
	b.t.Helper()
	b.insert(fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (?, ?)`, table, childColumn, parentColumn), childID, parentID)
}
