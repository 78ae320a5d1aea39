// Package catalog implements the course catalog operations on top of the
// mapper registry and the unit of work.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/georgekorob/patterns-project/internal/cachemanager"
	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/mapper"
	"github.com/georgekorob/patterns-project/internal/pubsub"
	"github.com/georgekorob/patterns-project/internal/uow"
)

const categoriesKey = "categories"

// Store is the storage context the service runs on.
type Store interface {
	Registry() *mapper.Registry
	NewUnit() *uow.UnitOfWork
	Events() *pubsub.Broker[uow.Change]
}

// Service exposes the catalog operations. It is not safe for concurrent
// use, like the unit of work it drives.
type Service struct {
	store    Store
	registry *mapper.Registry
	logger   *log.Logger
	ttl      time.Duration

	listing *cachemanager.ReadThroughCache[string, []CategorySummary]
	changes *pubsub.Listener[uow.Change]
	cancel  context.CancelFunc
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCacheTTL sets how long the category listing is cached. Zero
// disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// New creates a service over store. Close releases the change
// subscription.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: store.Registry(),
		logger:   log.Nop(),
		ttl:      cachemanager.DefaultExpiration,
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.changes = pubsub.NewListener(ctx, store.Events())

	cache := cachemanager.NewInMemoryCacheManager[string, []CategorySummary](
		categoriesKey, s.ttl, cachemanager.DefaultCleanupInterval, s.logger,
	)
	s.listing = cachemanager.NewReadThroughCache[string, []CategorySummary](cache,
		func(ctx context.Context, _ string) ([]CategorySummary, error) {
			return s.loadCategories(ctx)
		},
		s.ttl,
	)
	return s
}

// Close stops listening for commits.
func (s *Service) Close() {
	s.cancel()
}

func (s *Service) mapperFor(kind domain.Kind) (*mapper.Mapper, error) {
	return s.registry.Get(kind)
}

// invalidate flushes cached listings if any commit happened since the
// last read.
func (s *Service) invalidate(ctx context.Context) {
	if n := s.changes.Drain(); n > 0 {
		s.logger.Debug(log.CatCatalog, "Invalidating category cache", "changes", n)
		_ = s.listing.Invalidate(ctx)
	}
}

// Refresh drops the cached category listing. Writes made by other
// processes do not reach the change subscription, so watchers call this
// when the database file changes.
func (s *Service) Refresh(ctx context.Context) error {
	s.changes.Drain()
	return s.listing.Invalidate(ctx)
}

func (s *Service) commit(ctx context.Context, unit *uow.UnitOfWork, op string) error {
	if err := unit.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func requireName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrInvalidInput, field)
	}
	return value, nil
}

// Seed fills an empty database with the demo teachers, students,
// categories and courses in a single unit of work.
func (s *Service) Seed(ctx context.Context) error {
	categories, err := s.mapperFor(domain.KindCategory)
	if err != nil {
		return err
	}
	n, err := categories.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrAlreadySeeded
	}

	unit := s.store.NewUnit()
	for _, u := range seedUsers {
		person, err := domain.NewUser(u.kind, u.first, u.last)
		if err != nil {
			return err
		}
		if err := unit.RegisterNew(person); err != nil {
			return err
		}
	}
	for _, sc := range seedCategories {
		category := domain.NewCategory(sc.name)
		if err := category.MarkNew(unit); err != nil {
			return err
		}
		for _, name := range sc.courses {
			course, err := domain.NewCourse(domain.CourseRecord, name, seedCourseLink)
			if err != nil {
				return err
			}
			if err := course.MarkNew(unit); err != nil {
				return err
			}
			if err := domain.Link(course, category).MarkNew(unit); err != nil {
				return err
			}
		}
	}

	pending := unit.Pending()
	if err := s.commit(ctx, unit, "seed"); err != nil {
		return err
	}
	s.logger.Info(log.CatCatalog, "Seeded catalog", "rows", pending.Total())
	return nil
}

// CreateCategory creates a category, nested under parentID unless it is 0.
func (s *Service) CreateCategory(ctx context.Context, name string, parentID int64) (*domain.Category, error) {
	name, err := requireName("category name", name)
	if err != nil {
		return nil, err
	}

	unit := s.store.NewUnit()
	category := domain.NewCategory(name)
	if err := category.MarkNew(unit); err != nil {
		return nil, err
	}
	if parentID != 0 {
		parent, err := s.Category(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if err := domain.Link(category, parent).MarkNew(unit); err != nil {
			return nil, err
		}
	}

	if err := s.commit(ctx, unit, "create category"); err != nil {
		return nil, err
	}
	s.logger.Info(log.CatCatalog, "Created category", "id", category.ID(), "name", name, "parent", parentID)
	return category, nil
}

// Category returns one category.
func (s *Service) Category(ctx context.Context, id int64) (*domain.Category, error) {
	m, err := s.mapperFor(domain.KindCategory)
	if err != nil {
		return nil, err
	}
	obj, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return obj.(*domain.Category), nil
}

// Categories lists every category with its parent and course count.
// The result is cached until the next commit.
func (s *Service) Categories(ctx context.Context) ([]CategorySummary, error) {
	s.invalidate(ctx)
	return s.listing.Get(ctx, categoriesKey)
}

func (s *Service) loadCategories(ctx context.Context) ([]CategorySummary, error) {
	m, err := s.mapperFor(domain.KindCategory)
	if err != nil {
		return nil, err
	}
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]CategorySummary, 0, len(all))
	for _, obj := range all {
		category := obj.(*domain.Category)
		parentID, err := s.parentOf(ctx, category)
		if err != nil {
			return nil, err
		}
		count, err := s.courseCount(ctx, category)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, CategorySummary{
			ID:          category.ID(),
			Name:        category.Name,
			ParentID:    parentID,
			CourseCount: count,
		})
	}
	return summaries, nil
}

// parentOf returns the id of the first parent category, or 0.
func (s *Service) parentOf(ctx context.Context, category *domain.Category) (int64, error) {
	m, err := s.mapperFor(domain.KindCategory)
	if err != nil {
		return 0, err
	}
	parents, err := m.Related(ctx, category, domain.KindCategory, mapper.Parent)
	if err != nil {
		return 0, err
	}
	if len(parents) == 0 {
		return 0, nil
	}
	return parents[0].ID(), nil
}

// CourseCount returns the number of courses in the category plus the
// course count of its parent, recursively.
func (s *Service) CourseCount(ctx context.Context, categoryID int64) (int, error) {
	category, err := s.Category(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	return s.courseCount(ctx, category)
}

func (s *Service) courseCount(ctx context.Context, category *domain.Category) (int, error) {
	categories, err := s.mapperFor(domain.KindCategory)
	if err != nil {
		return 0, err
	}

	total := 0
	seen := make(map[int64]bool)
	var current domain.Object = category
	for current != nil && !seen[current.ID()] {
		seen[current.ID()] = true

		courses, err := categories.Related(ctx, current, domain.KindCourse, mapper.Child)
		if err != nil {
			return 0, err
		}
		total += len(courses)

		parents, err := categories.Related(ctx, current, domain.KindCategory, mapper.Parent)
		if err != nil {
			return 0, err
		}
		current = nil
		if len(parents) > 0 {
			current = parents[0]
		}
	}
	return total, nil
}

// CoursesOf lists the courses linked to a category.
func (s *Service) CoursesOf(ctx context.Context, categoryID int64) ([]*domain.Course, error) {
	category, err := s.Category(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	m, err := s.mapperFor(domain.KindCategory)
	if err != nil {
		return nil, err
	}
	related, err := m.Related(ctx, category, domain.KindCourse, mapper.Child)
	if err != nil {
		return nil, err
	}
	return asCourses(related), nil
}

// Courses lists every course.
func (s *Service) Courses(ctx context.Context) ([]*domain.Course, error) {
	m, err := s.mapperFor(domain.KindCourse)
	if err != nil {
		return nil, err
	}
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	return asCourses(all), nil
}

func asCourses(objs []domain.Object) []*domain.Course {
	courses := make([]*domain.Course, len(objs))
	for i, obj := range objs {
		courses[i] = obj.(*domain.Course)
	}
	return courses
}

// Course returns one course.
func (s *Service) Course(ctx context.Context, id int64) (*domain.Course, error) {
	m, err := s.mapperFor(domain.KindCourse)
	if err != nil {
		return nil, err
	}
	obj, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return obj.(*domain.Course), nil
}

// CreateCourse creates a course in a category.
func (s *Service) CreateCourse(ctx context.Context, courseType domain.CourseType, name, link string, categoryID int64) (*domain.Course, error) {
	name, err := requireName("course name", name)
	if err != nil {
		return nil, err
	}
	course, err := domain.NewCourse(courseType, name, strings.TrimSpace(link))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	category, err := s.Category(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	unit := s.store.NewUnit()
	if err := course.MarkNew(unit); err != nil {
		return nil, err
	}
	if err := domain.Link(course, category).MarkNew(unit); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, unit, "create course"); err != nil {
		return nil, err
	}
	s.logger.Info(log.CatCatalog, "Created course", "id", course.ID(), "name", name, "category", categoryID)
	return course, nil
}

// EditCourse renames a course, replaces its link and, when categoryID is
// not 0, moves it to that category.
func (s *Service) EditCourse(ctx context.Context, id int64, name, link string, categoryID int64) (*domain.Course, error) {
	name, err := requireName("course name", name)
	if err != nil {
		return nil, err
	}
	course, err := s.Course(ctx, id)
	if err != nil {
		return nil, err
	}

	unit := s.store.NewUnit()
	course.Name = name
	course.Link = strings.TrimSpace(link)
	if err := course.MarkDirty(unit); err != nil {
		return nil, err
	}

	if categoryID != 0 {
		category, err := s.Category(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		edges, err := s.mapperFor(domain.KindCourseCategory)
		if err != nil {
			return nil, err
		}
		current, err := edges.Where(ctx, edges.Schema().Columns[0], course.ID())
		if err != nil {
			return nil, err
		}
		for _, edge := range current {
			if err := unit.RegisterRemoved(edge); err != nil {
				return nil, err
			}
		}
		if err := domain.Link(course, category).MarkNew(unit); err != nil {
			return nil, err
		}
	}

	if err := s.commit(ctx, unit, "edit course"); err != nil {
		return nil, err
	}
	s.logger.Info(log.CatCatalog, "Edited course", "id", id, "category", categoryID)
	return course, nil
}

// CopyCourse stores a clone of a course named "copy_<name>" in
// categoryID, or in the original's first category when categoryID is 0.
func (s *Service) CopyCourse(ctx context.Context, id, categoryID int64) (*domain.Course, error) {
	original, err := s.Course(ctx, id)
	if err != nil {
		return nil, err
	}

	var category domain.Object
	if categoryID != 0 {
		if category, err = s.Category(ctx, categoryID); err != nil {
			return nil, err
		}
	} else {
		courses, err := s.mapperFor(domain.KindCourse)
		if err != nil {
			return nil, err
		}
		parents, err := courses.Related(ctx, original, domain.KindCategory, mapper.Parent)
		if err != nil {
			return nil, err
		}
		if len(parents) > 0 {
			category = parents[0]
		}
	}

	clone := original.Clone()
	clone.Name = "copy_" + original.Name

	unit := s.store.NewUnit()
	if err := clone.MarkNew(unit); err != nil {
		return nil, err
	}
	if category != nil {
		if err := domain.Link(clone, category).MarkNew(unit); err != nil {
			return nil, err
		}
	}
	if err := s.commit(ctx, unit, "copy course"); err != nil {
		return nil, err
	}
	s.logger.Info(log.CatCatalog, "Copied course", "from", id, "to", clone.ID())
	return clone, nil
}

// DeleteCourse removes a course and its edges.
func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	course, err := s.Course(ctx, id)
	if err != nil {
		return err
	}
	unit := s.store.NewUnit()
	if err := course.MarkRemoved(unit); err != nil {
		return err
	}
	if err := s.commit(ctx, unit, "delete course"); err != nil {
		return err
	}
	s.logger.Info(log.CatCatalog, "Deleted course", "id", id)
	return nil
}

func userKind(kind domain.Kind) error {
	if kind != domain.KindTeacher && kind != domain.KindStudent {
		return fmt.Errorf("%w: unknown user kind %q", ErrInvalidInput, kind)
	}
	return nil
}

// CreateUser creates a teacher or a student.
func (s *Service) CreateUser(ctx context.Context, kind domain.Kind, firstName, lastName string) (domain.Person, error) {
	if err := userKind(kind); err != nil {
		return nil, err
	}
	firstName, err := requireName("first name", firstName)
	if err != nil {
		return nil, err
	}
	person, err := domain.NewUser(kind, firstName, strings.TrimSpace(lastName))
	if err != nil {
		return nil, err
	}

	unit := s.store.NewUnit()
	if err := unit.RegisterNew(person); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, unit, "create user"); err != nil {
		return nil, err
	}
	s.logger.Info(log.CatCatalog, "Created user", "kind", kind, "id", person.ID())
	return person, nil
}

// User returns one teacher or student.
func (s *Service) User(ctx context.Context, kind domain.Kind, id int64) (domain.Person, error) {
	if err := userKind(kind); err != nil {
		return nil, err
	}
	m, err := s.mapperFor(kind)
	if err != nil {
		return nil, err
	}
	obj, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return obj.(domain.Person), nil
}

// Users lists every user of kind.
func (s *Service) Users(ctx context.Context, kind domain.Kind) ([]domain.Person, error) {
	if err := userKind(kind); err != nil {
		return nil, err
	}
	m, err := s.mapperFor(kind)
	if err != nil {
		return nil, err
	}
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	return asPeople(all), nil
}

func asPeople(objs []domain.Object) []domain.Person {
	people := make([]domain.Person, len(objs))
	for i, obj := range objs {
		people[i] = obj.(domain.Person)
	}
	return people
}

// DeleteUser removes a teacher or student and their course edges.
func (s *Service) DeleteUser(ctx context.Context, kind domain.Kind, id int64) error {
	person, err := s.User(ctx, kind, id)
	if err != nil {
		return err
	}
	unit := s.store.NewUnit()
	if err := unit.RegisterRemoved(person); err != nil {
		return err
	}
	if err := s.commit(ctx, unit, "delete user"); err != nil {
		return err
	}
	s.logger.Info(log.CatCatalog, "Deleted user", "kind", kind, "id", id)
	return nil
}

// Enroll links a student to a course.
func (s *Service) Enroll(ctx context.Context, studentID, courseID int64) error {
	return s.attach(ctx, domain.KindStudent, studentID, courseID)
}

// Assign links a teacher to a course.
func (s *Service) Assign(ctx context.Context, teacherID, courseID int64) error {
	return s.attach(ctx, domain.KindTeacher, teacherID, courseID)
}

func (s *Service) attach(ctx context.Context, kind domain.Kind, userID, courseID int64) error {
	person, err := s.User(ctx, kind, userID)
	if err != nil {
		return err
	}
	course, err := s.Course(ctx, courseID)
	if err != nil {
		return err
	}
	unit := s.store.NewUnit()
	if err := domain.Link(person, course).MarkNew(unit); err != nil {
		return err
	}
	if err := s.commit(ctx, unit, "link "+string(kind)); err != nil {
		return err
	}
	s.logger.Info(log.CatCatalog, "Linked user to course", "kind", kind, "user", userID, "course", courseID)
	return nil
}

// StudentsOf lists the students enrolled in a course.
func (s *Service) StudentsOf(ctx context.Context, courseID int64) ([]domain.Person, error) {
	return s.peopleOf(ctx, domain.KindStudent, courseID)
}

// TeachersOf lists the teachers assigned to a course.
func (s *Service) TeachersOf(ctx context.Context, courseID int64) ([]domain.Person, error) {
	return s.peopleOf(ctx, domain.KindTeacher, courseID)
}

func (s *Service) peopleOf(ctx context.Context, kind domain.Kind, courseID int64) ([]domain.Person, error) {
	course, err := s.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	m, err := s.mapperFor(domain.KindCourse)
	if err != nil {
		return nil, err
	}
	related, err := m.Related(ctx, course, kind, mapper.Child)
	if err != nil {
		return nil, err
	}
	return asPeople(related), nil
}

// CoursesOfStudent lists the courses a student is enrolled in.
func (s *Service) CoursesOfStudent(ctx context.Context, studentID int64) ([]*domain.Course, error) {
	student, err := s.User(ctx, domain.KindStudent, studentID)
	if err != nil {
		return nil, err
	}
	m, err := s.mapperFor(domain.KindStudent)
	if err != nil {
		return nil, err
	}
	related, err := m.Related(ctx, student, domain.KindCourse, mapper.Parent)
	if err != nil {
		return nil, err
	}
	return asCourses(related), nil
}
