package catalog

import (
	"errors"

	"github.com/georgekorob/patterns-project/internal/domain"
)

var (
	// ErrAlreadySeeded is returned by Seed when categories already exist.
	ErrAlreadySeeded = errors.New("catalog already has data")
	// ErrInvalidInput wraps argument validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// CategorySummary is one row of the category listing.
type CategorySummary struct {
	ID   int64
	Name string
	// ParentID is 0 for a top-level category.
	ParentID int64
	// CourseCount counts the category's own courses plus the count of
	// its parent, recursively.
	CourseCount int
}

// seedCategories lists the demo categories and the record courses in
// each of them.
var seedCategories = []struct {
	name    string
	courses []string
}{
	{name: "Programmers", courses: []string{"Python", "Java"}},
	{name: "Sport", courses: []string{"Power", "Run", "Tennis", "Soccer"}},
	{name: "Life Ballance", courses: []string{"Time"}},
	{name: "Spirit"},
}

const seedCourseLink = "/site_link/"

var seedUsers = []struct {
	kind        domain.Kind
	first, last string
}{
	{domain.KindTeacher, "John", "Wick"},
	{domain.KindTeacher, "Peter", "Dinklage"},
	{domain.KindTeacher, "Emilia", "Clarke"},
	{domain.KindStudent, "Angela", "Moss"},
	{domain.KindStudent, "Jill", "Lawson"},
	{domain.KindStudent, "Steve", "Ray"},
}
