package testutil

// categoryData holds a category to be inserted.
type categoryData struct {
	name   string
	parent string
}

// CategoryOption configures a category during builder setup.
type CategoryOption func(*categoryData)

// Parent nests the category under the named category, which must be added
// to the builder before it.
func Parent(name string) CategoryOption {
	return func(c *categoryData) { c.parent = name }
}

// courseData holds a course to be inserted.
type courseData struct {
	name       string
	courseType string
	link       string
	categories []string
}

func defaultCourse(name string) courseData {
	return courseData{
		name:       name,
		courseType: "record",
		link:       "/site_link/",
	}
}

// CourseOption configures a course during builder setup.
type CourseOption func(*courseData)

// Type sets the course type ("record" or "interactive").
func Type(t string) CourseOption {
	return func(c *courseData) { c.courseType = t }
}

// Link sets the course link.
func Link(link string) CourseOption {
	return func(c *courseData) { c.link = link }
}

// InCategories links the course to the named categories.
func InCategories(names ...string) CourseOption {
	return func(c *courseData) { c.categories = append(c.categories, names...) }
}

// personData holds a teacher or student to be inserted.
type personData struct {
	first   string
	last    string
	courses []string
}

// PersonOption configures a teacher or student during builder setup.
type PersonOption func(*personData)

// LastName sets the last name.
func LastName(name string) PersonOption {
	return func(p *personData) { p.last = name }
}

// Courses links the person to the named courses.
func Courses(names ...string) PersonOption {
	return func(p *personData) { p.courses = append(p.courses, names...) }
}
