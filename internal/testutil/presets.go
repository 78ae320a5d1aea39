package testutil

// WithStandardCatalog adds the demo catalog: the seed categories and
// courses plus three teachers and three students.
//
// Structure:
//
//	Programmers: Python, Java
//	Sport: Power, Run, Tennis, Soccer
//	Life Ballance: Time
//	Spirit
//
// John teaches Python and Java, Peter teaches Tennis. Angela takes Python
// and Tennis, Jill takes Tennis.
func (b *Builder) WithStandardCatalog() *Builder {
	return b.
		WithCategory("Programmers").
		WithCategory("Sport").
		WithCategory("Life Ballance").
		WithCategory("Spirit").
		WithCourse("Python", InCategories("Programmers")).
		WithCourse("Java", InCategories("Programmers")).
		WithCourse("Power", InCategories("Sport")).
		WithCourse("Run", InCategories("Sport")).
		WithCourse("Tennis", InCategories("Sport")).
		WithCourse("Soccer", InCategories("Sport")).
		WithCourse("Time", InCategories("Life Ballance")).
		WithTeacher("John", LastName("Wick"), Courses("Python", "Java")).
		WithTeacher("Peter", LastName("Dinklage"), Courses("Tennis")).
		WithTeacher("Emilia", LastName("Clarke")).
		WithStudent("Angela", LastName("Moss"), Courses("Python", "Tennis")).
		WithStudent("Jill", LastName("Lawson"), Courses("Tennis")).
		WithStudent("Steve", LastName("Ray"))
}

// WithNestedCategories adds a three-level category chain.
//
//	Programmers (Python)
//	  └── Backend (Go, Rust)
//	        └── Databases (SQL)
func (b *Builder) WithNestedCategories() *Builder {
	return b.
		WithCategory("Programmers").
		WithCategory("Backend", Parent("Programmers")).
		WithCategory("Databases", Parent("Backend")).
		WithCourse("Python", InCategories("Programmers")).
		WithCourse("Go", InCategories("Backend")).
		WithCourse("Rust", InCategories("Backend")).
		WithCourse("SQL", Type("interactive"), InCategories("Databases"))
}
