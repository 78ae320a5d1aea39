package sqlite

import (
	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/mapper"
)

// CatalogSchemas returns the descriptor of every table created by the
// baseline migration.
func CatalogSchemas() []mapper.Schema {
	userColumns := []string{"first_name", "last_name"}
	return []mapper.Schema{
		{
			Kind:    domain.KindTeacher,
			Table:   "teacher",
			Columns: userColumns,
			New:     func() domain.Object { return &domain.Teacher{} },
		},
		{
			Kind:    domain.KindStudent,
			Table:   "student",
			Columns: userColumns,
			New:     func() domain.Object { return &domain.Student{} },
		},
		{
			Kind:    domain.KindCourse,
			Table:   "course",
			Columns: []string{"name", "type", "link"},
			New:     func() domain.Object { return &domain.Course{} },
		},
		{
			Kind:    domain.KindCategory,
			Table:   "category",
			Columns: []string{"name"},
			New:     func() domain.Object { return &domain.Category{} },
		},
		mapper.RelationSchema(domain.KindCourse, domain.KindCategory),
		mapper.RelationSchema(domain.KindCategory, domain.KindCategory),
		mapper.RelationSchema(domain.KindStudent, domain.KindCourse),
		mapper.RelationSchema(domain.KindTeacher, domain.KindCourse),
	}
}
