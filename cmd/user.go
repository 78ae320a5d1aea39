package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/presentation"
)

var userKind string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage teachers and students",
}

func kindFlag() (domain.Kind, error) {
	switch k := domain.Kind(userKind); k {
	case domain.KindTeacher, domain.KindStudent:
		return k, nil
	default:
		return "", fmt.Errorf("invalid --kind %q: must be teacher or student", userKind)
	}
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List teachers or students",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, err := kindFlag()
		if err != nil {
			return err
		}
		people, err := rt.catalog.Users(cmd.Context(), kind)
		if err != nil {
			return err
		}
		return formatter(cmd).FormatUsers(presentation.FromPeople(people))
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create FIRST_NAME [LAST_NAME]",
	Short: "Create a teacher or student",
	Long: `Create a teacher or student.

Examples:
  catalog user create Ada Lovelace --kind teacher
  catalog user create Linus --kind student`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindFlag()
		if err != nil {
			return err
		}
		last := ""
		if len(args) == 2 {
			last = args[1]
		}
		person, err := rt.catalog.CreateUser(cmd.Context(), kind, args[0], last)
		if err != nil {
			return err
		}
		dto := presentation.FromPerson(person)
		return formatter(cmd).FormatResult(fmt.Sprintf("Created %s %d (%s)", dto.Kind, dto.ID, person.Profile().FullName()), dto)
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a teacher or student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindFlag()
		if err != nil {
			return err
		}
		id, err := parseID(string(kind)+" id", args[0])
		if err != nil {
			return err
		}
		if err := rt.catalog.DeleteUser(cmd.Context(), kind, id); err != nil {
			return err
		}
		return formatter(cmd).FormatResult(fmt.Sprintf("Deleted %s %d", kind, id), map[string]int64{"deleted": id})
	},
}

var userCoursesCmd = &cobra.Command{
	Use:   "courses ID",
	Short: "List the courses a student is enrolled in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("student id", args[0])
		if err != nil {
			return err
		}
		courses, err := rt.catalog.CoursesOfStudent(cmd.Context(), id)
		if err != nil {
			return err
		}
		return formatter(cmd).FormatCourses(presentation.FromCourses(courses))
	},
}

func init() {
	for _, c := range []*cobra.Command{userListCmd, userCreateCmd, userDeleteCmd} {
		c.Flags().StringVarP(&userKind, "kind", "k", string(domain.KindStudent), "User kind: teacher or student")
	}
	userCmd.AddCommand(userListCmd, userCreateCmd, userDeleteCmd, userCoursesCmd)
	rootCmd.AddCommand(userCmd)
}
