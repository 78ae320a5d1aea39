package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/presentation"
)

var (
	courseCategory int64
	courseType     string
	courseLink     string
	courseName     string
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Manage courses",
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses",
	Long: `List every course, or the courses of one category.

Examples:
  catalog course list
  catalog course list --category 2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			courses []*domain.Course
			err     error
		)
		if courseCategory != 0 {
			courses, err = rt.catalog.CoursesOf(cmd.Context(), courseCategory)
		} else {
			courses, err = rt.catalog.Courses(cmd.Context())
		}
		if err != nil {
			return err
		}
		return formatter(cmd).FormatCourses(presentation.FromCourses(courses))
	},
}

var courseCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a course in a category",
	Long: `Create a course of type record or interactive in a category.

Examples:
  catalog course create Golang --category 1
  catalog course create Yoga --category 4 --type interactive --link /yoga/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		course, err := rt.catalog.CreateCourse(cmd.Context(),
			domain.CourseType(courseType), args[0], courseLink, courseCategory)
		if err != nil {
			return err
		}
		dto := presentation.FromCourse(course)
		return formatter(cmd).FormatResult(fmt.Sprintf("Created course %d (%s)", dto.ID, dto.Name), dto)
	},
}

var courseEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Rename a course, change its link or move it",
	Long: `Edit a course. Flags that are not given keep their current value.
--category moves the course to another category.

Examples:
  catalog course edit 3 --name "Advanced Python"
  catalog course edit 3 --category 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course id", args[0])
		if err != nil {
			return err
		}
		current, err := rt.catalog.Course(cmd.Context(), id)
		if err != nil {
			return err
		}
		name, link := current.Name, current.Link
		if cmd.Flags().Changed("name") {
			name = courseName
		}
		if cmd.Flags().Changed("link") {
			link = courseLink
		}
		course, err := rt.catalog.EditCourse(cmd.Context(), id, name, link, courseCategory)
		if err != nil {
			return err
		}
		dto := presentation.FromCourse(course)
		return formatter(cmd).FormatResult(fmt.Sprintf("Updated course %d (%s)", dto.ID, dto.Name), dto)
	},
}

var courseCopyCmd = &cobra.Command{
	Use:   "copy ID",
	Short: "Copy a course",
	Long: `Store a copy of a course named copy_<name>. Without --category the copy
goes to the original's category.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course id", args[0])
		if err != nil {
			return err
		}
		course, err := rt.catalog.CopyCourse(cmd.Context(), id, courseCategory)
		if err != nil {
			return err
		}
		dto := presentation.FromCourse(course)
		return formatter(cmd).FormatResult(fmt.Sprintf("Created course %d (%s)", dto.ID, dto.Name), dto)
	},
}

var courseDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course id", args[0])
		if err != nil {
			return err
		}
		if err := rt.catalog.DeleteCourse(cmd.Context(), id); err != nil {
			return err
		}
		return formatter(cmd).FormatResult(fmt.Sprintf("Deleted course %d", id), map[string]int64{"deleted": id})
	},
}

var courseStudentsCmd = &cobra.Command{
	Use:   "students ID",
	Short: "List the students enrolled in a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course id", args[0])
		if err != nil {
			return err
		}
		people, err := rt.catalog.StudentsOf(cmd.Context(), id)
		if err != nil {
			return err
		}
		return formatter(cmd).FormatUsers(presentation.FromPeople(people))
	},
}

var courseTeachersCmd = &cobra.Command{
	Use:   "teachers ID",
	Short: "List the teachers assigned to a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("course id", args[0])
		if err != nil {
			return err
		}
		people, err := rt.catalog.TeachersOf(cmd.Context(), id)
		if err != nil {
			return err
		}
		return formatter(cmd).FormatUsers(presentation.FromPeople(people))
	},
}

func init() {
	courseListCmd.Flags().Int64Var(&courseCategory, "category", 0, "Only list courses of this category")

	courseCreateCmd.Flags().Int64Var(&courseCategory, "category", 0, "Category id (required)")
	courseCreateCmd.Flags().StringVarP(&courseType, "type", "t", string(domain.CourseRecord), "Course type: record or interactive")
	courseCreateCmd.Flags().StringVar(&courseLink, "link", "", "Course link")
	_ = courseCreateCmd.MarkFlagRequired("category")

	courseEditCmd.Flags().StringVar(&courseName, "name", "", "New course name")
	courseEditCmd.Flags().StringVar(&courseLink, "link", "", "New course link")
	courseEditCmd.Flags().Int64Var(&courseCategory, "category", 0, "Move the course to this category")

	courseCopyCmd.Flags().Int64Var(&courseCategory, "category", 0, "Category for the copy")

	courseCmd.AddCommand(courseListCmd, courseCreateCmd, courseEditCmd, courseCopyCmd,
		courseDeleteCmd, courseStudentsCmd, courseTeachersCmd)
	rootCmd.AddCommand(courseCmd)
}
