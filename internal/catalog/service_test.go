package catalog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/georgekorob/patterns-project/internal/catalog"
	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/infrastructure/sqlite"
	"github.com/georgekorob/patterns-project/internal/mapper"
	"github.com/georgekorob/patterns-project/internal/testutil"
)

func newTestService(t *testing.T, opts ...catalog.Option) (*catalog.Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "catalog.sqlite"))
	require.NoError(t, err)
	svc := catalog.New(db, opts...)
	t.Cleanup(func() {
		svc.Close()
		_ = db.Close()
	})
	return svc, db
}

func seeded(t *testing.T, opts ...catalog.Option) (*catalog.Service, *sqlite.DB) {
	t.Helper()
	svc, db := newTestService(t, opts...)
	require.NoError(t, svc.Seed(context.Background()))
	return svc, db
}

func categoryByName(t *testing.T, svc *catalog.Service, name string) catalog.CategorySummary {
	t.Helper()
	all, err := svc.Categories(context.Background())
	require.NoError(t, err)
	for _, c := range all {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found", name)
	return catalog.CategorySummary{}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)

	teachers, err := svc.Users(ctx, domain.KindTeacher)
	require.NoError(t, err)
	require.Len(t, teachers, 3)
	require.Equal(t, "John Wick", teachers[0].Profile().FullName())

	students, err := svc.Users(ctx, domain.KindStudent)
	require.NoError(t, err)
	require.Len(t, students, 3)
	require.Equal(t, "Steve", students[2].Profile().FirstName)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 4)

	counts := map[string]int{}
	for _, c := range categories {
		counts[c.Name] = c.CourseCount
		require.Zero(t, c.ParentID)
	}
	require.Equal(t, map[string]int{"Programmers": 2, "Sport": 4, "Life Ballance": 1, "Spirit": 0}, counts)

	courses, err := svc.CoursesOf(ctx, categoryByName(t, svc, "Sport").ID)
	require.NoError(t, err)
	require.Len(t, courses, 4)
	for _, c := range courses {
		require.Equal(t, domain.CourseRecord, c.Type)
		require.Equal(t, "/site_link/", c.Link)
	}

	require.ErrorIs(t, svc.Seed(ctx), catalog.ErrAlreadySeeded)
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	svc, db := seeded(t)

	categories, err := db.Registry().Get(domain.KindCategory)
	require.NoError(t, err)
	before, err := categories.All(ctx)
	require.NoError(t, err)

	created, err := svc.CreateCategory(ctx, "  Programmers  ", 0)
	require.NoError(t, err)
	require.Equal(t, "Programmers", created.Name)

	after, err := categories.All(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	last, err := categories.Last(ctx)
	require.NoError(t, err)
	require.Equal(t, "Programmers", last.(*domain.Category).Name)

	_, err = svc.CreateCategory(ctx, " ", 0)
	require.ErrorIs(t, err, catalog.ErrInvalidInput)

	_, err = svc.CreateCategory(ctx, "Orphan", 999)
	require.ErrorIs(t, err, mapper.ErrNotFound)
}

func TestCourseCountIncludesParentChain(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)
	programmers := categoryByName(t, svc, "Programmers")

	golang, err := svc.CreateCategory(ctx, "Go", programmers.ID)
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, domain.CourseInteractive, "Concurrency", "/go/", golang.ID())
	require.NoError(t, err)

	n, err := svc.CourseCount(ctx, golang.ID())
	require.NoError(t, err)
	require.Equal(t, 3, n, "one own course plus the two of Programmers")

	summary := categoryByName(t, svc, "Go")
	require.Equal(t, programmers.ID, summary.ParentID)
	require.Equal(t, 3, summary.CourseCount)

	_, err = svc.CourseCount(ctx, 999)
	require.ErrorIs(t, err, mapper.ErrNotFound)
}

func TestCourseCountStopsOnCycle(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	a, err := svc.CreateCategory(ctx, "A", 0)
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, "B", a.ID())
	require.NoError(t, err)

	// Close the loop: A becomes a child of B.
	unit := db.NewUnit()
	require.NoError(t, domain.Link(a, b).MarkNew(unit))
	require.NoError(t, unit.Commit(ctx))

	_, err = svc.CreateCourse(ctx, domain.CourseRecord, "Loop", "", a.ID())
	require.NoError(t, err)

	n, err := svc.CourseCount(ctx, b.ID())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)
	spirit := categoryByName(t, svc, "Spirit")

	course, err := svc.CreateCourse(ctx, domain.CourseInteractive, "Meditation", " /zoom/ ", spirit.ID)
	require.NoError(t, err)
	require.Positive(t, course.ID())
	require.Equal(t, "/zoom/", course.Link)

	courses, err := svc.CoursesOf(ctx, spirit.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "Meditation", courses[0].Name)

	_, err = svc.CreateCourse(ctx, "webinar", "X", "", spirit.ID)
	require.ErrorIs(t, err, catalog.ErrInvalidInput)

	_, err = svc.CreateCourse(ctx, domain.CourseRecord, "X", "", 999)
	require.ErrorIs(t, err, mapper.ErrNotFound)
}

func TestEditCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)
	programmers := categoryByName(t, svc, "Programmers")
	sport := categoryByName(t, svc, "Sport")

	courses, err := svc.CoursesOf(ctx, programmers.ID)
	require.NoError(t, err)
	python := courses[0]

	edited, err := svc.EditCourse(ctx, python.ID(), "Python 3", "/py3/", 0)
	require.NoError(t, err)
	require.Equal(t, "Python 3", edited.Name)

	found, err := svc.Course(ctx, python.ID())
	require.NoError(t, err)
	require.Equal(t, "Python 3", found.Name)
	require.Equal(t, "/py3/", found.Link)

	_, err = svc.EditCourse(ctx, python.ID(), "Python 3", "/py3/", sport.ID)
	require.NoError(t, err)

	inProgrammers, err := svc.CoursesOf(ctx, programmers.ID)
	require.NoError(t, err)
	require.Len(t, inProgrammers, 1)
	inSport, err := svc.CoursesOf(ctx, sport.ID)
	require.NoError(t, err)
	require.Len(t, inSport, 5)

	_, err = svc.EditCourse(ctx, 999, "Ghost", "", 0)
	require.ErrorIs(t, err, mapper.ErrNotFound)
	_, err = svc.EditCourse(ctx, python.ID(), "", "", 0)
	require.ErrorIs(t, err, catalog.ErrInvalidInput)
}

func TestCopyCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)
	life := categoryByName(t, svc, "Life Ballance")
	spirit := categoryByName(t, svc, "Spirit")

	courses, err := svc.CoursesOf(ctx, life.ID)
	require.NoError(t, err)
	original := courses[0]

	sameCategory, err := svc.CopyCourse(ctx, original.ID(), 0)
	require.NoError(t, err)
	require.Equal(t, "copy_Time", sameCategory.Name)
	require.NotEqual(t, original.ID(), sameCategory.ID())
	require.Equal(t, original.Link, sameCategory.Link)

	courses, err = svc.CoursesOf(ctx, life.ID)
	require.NoError(t, err)
	require.Len(t, courses, 2)

	elsewhere, err := svc.CopyCourse(ctx, original.ID(), spirit.ID)
	require.NoError(t, err)
	courses, err = svc.CoursesOf(ctx, spirit.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, elsewhere.ID(), courses[0].ID())
}

func TestDeleteCourse(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)
	sport := categoryByName(t, svc, "Sport")

	courses, err := svc.CoursesOf(ctx, sport.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCourse(ctx, courses[0].ID()))

	_, err = svc.Course(ctx, courses[0].ID())
	require.ErrorIs(t, err, mapper.ErrNotFound)

	left, err := svc.CoursesOf(ctx, sport.ID)
	require.NoError(t, err)
	require.Len(t, left, 3)

	require.ErrorIs(t, svc.DeleteCourse(ctx, courses[0].ID()), mapper.ErrNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	student, err := svc.CreateUser(ctx, domain.KindStudent, "Angela", "Moss")
	require.NoError(t, err)
	require.Equal(t, domain.KindStudent, student.Kind())

	_, err = svc.CreateUser(ctx, domain.KindCourse, "Not", "AUser")
	require.ErrorIs(t, err, catalog.ErrInvalidInput)
	_, err = svc.CreateUser(ctx, domain.KindTeacher, "", "Nobody")
	require.ErrorIs(t, err, catalog.ErrInvalidInput)

	require.NoError(t, svc.DeleteUser(ctx, domain.KindStudent, student.ID()))

	_, err = svc.User(ctx, domain.KindStudent, student.ID())
	var notFound *mapper.RecordNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "student", notFound.Table)
}

func TestEnrollAndAssign(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t)

	students, err := svc.Users(ctx, domain.KindStudent)
	require.NoError(t, err)
	teachers, err := svc.Users(ctx, domain.KindTeacher)
	require.NoError(t, err)
	courses, err := svc.Courses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 7)

	tennis := courses[4]
	require.NoError(t, svc.Enroll(ctx, students[0].ID(), tennis.ID()))
	require.NoError(t, svc.Enroll(ctx, students[1].ID(), tennis.ID()))
	require.NoError(t, svc.Enroll(ctx, students[0].ID(), courses[0].ID()))
	require.NoError(t, svc.Assign(ctx, teachers[2].ID(), tennis.ID()))

	enrolled, err := svc.StudentsOf(ctx, tennis.ID())
	require.NoError(t, err)
	require.Len(t, enrolled, 2)

	assigned, err := svc.TeachersOf(ctx, tennis.ID())
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Equal(t, "Emilia", assigned[0].Profile().FirstName)

	mine, err := svc.CoursesOfStudent(ctx, students[0].ID())
	require.NoError(t, err)
	require.Len(t, mine, 2)

	require.ErrorIs(t, svc.Enroll(ctx, 999, tennis.ID()), mapper.ErrNotFound)
	require.ErrorIs(t, svc.Assign(ctx, teachers[0].ID(), 999), mapper.ErrNotFound)

	require.NoError(t, svc.DeleteUser(ctx, domain.KindStudent, students[1].ID()))
	enrolled, err = svc.StudentsOf(ctx, tennis.ID())
	require.NoError(t, err)
	require.Len(t, enrolled, 1, "edges go with the deleted student")
}

func TestCategoriesCacheInvalidatedByCommits(t *testing.T) {
	ctx := context.Background()
	svc, db := seeded(t, catalog.WithCacheTTL(time.Hour))

	first, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, first, 4)

	// A commit made outside the service still invalidates the listing.
	unit := db.NewUnit()
	require.NoError(t, domain.NewCategory("Outside").MarkNew(unit))
	require.NoError(t, unit.Commit(ctx))

	second, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, second, 5)
}

func TestCategoriesWithoutCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded(t, catalog.WithCacheTTL(0))

	_, err := svc.CreateCategory(ctx, "Extra", 0)
	require.NoError(t, err)

	all, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestRefreshPicksUpRawWrites(t *testing.T) {
	ctx := context.Background()
	svc, db := seeded(t, catalog.WithCacheTTL(time.Hour))

	all, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	_, err = db.Conn().ExecContext(ctx, `INSERT INTO category (name) VALUES ('Raw')`)
	require.NoError(t, err)

	all, err = svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4, "raw writes publish no events")

	require.NoError(t, svc.Refresh(ctx))
	all, err = svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestCourseCountOnPrebuiltHierarchy(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	b := testutil.NewBuilder(t, db.Conn()).WithNestedCategories().Build()
	svc := catalog.New(db)
	t.Cleanup(svc.Close)

	n, err := svc.CourseCount(ctx, b.ID(domain.KindCategory, "Databases"))
	require.NoError(t, err)
	require.Equal(t, 4, n, "SQL plus Go and Rust plus Python")

	courses, err := svc.CoursesOf(ctx, b.ID(domain.KindCategory, "Backend"))
	require.NoError(t, err)
	require.Len(t, courses, 2)
}
