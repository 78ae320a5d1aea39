package presentation

import (
	"github.com/georgekorob/patterns-project/internal/catalog"
	"github.com/georgekorob/patterns-project/internal/domain"
)

// CategoryDTO is a category listing row.
type CategoryDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ParentID    int64  `json:"parent_id,omitempty"`
	CourseCount int    `json:"course_count"`
}

// CourseDTO is a course.
type CourseDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Link string `json:"link"`
}

// UserDTO is a teacher or student.
type UserDTO struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FromCategorySummaries converts listing rows to DTOs.
func FromCategorySummaries(summaries []catalog.CategorySummary) []CategoryDTO {
	dtos := make([]CategoryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = CategoryDTO{ID: s.ID, Name: s.Name, ParentID: s.ParentID, CourseCount: s.CourseCount}
	}
	return dtos
}

// FromCourse converts a course to a DTO.
func FromCourse(c *domain.Course) CourseDTO {
	return CourseDTO{ID: c.ID(), Name: c.Name, Type: string(c.Type), Link: c.Link}
}

// FromCourses converts courses to DTOs.
func FromCourses(courses []*domain.Course) []CourseDTO {
	dtos := make([]CourseDTO, len(courses))
	for i, c := range courses {
		dtos[i] = FromCourse(c)
	}
	return dtos
}

// FromPerson converts a teacher or student to a DTO.
func FromPerson(p domain.Person) UserDTO {
	u := p.Profile()
	return UserDTO{ID: p.ID(), Kind: string(p.Kind()), FirstName: u.FirstName, LastName: u.LastName}
}

// FromPeople converts teachers or students to DTOs.
func FromPeople(people []domain.Person) []UserDTO {
	dtos := make([]UserDTO, len(people))
	for i, p := range people {
		dtos[i] = FromPerson(p)
	}
	return dtos
}
