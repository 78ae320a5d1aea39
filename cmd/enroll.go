package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll STUDENT_ID COURSE_ID",
	Short: "Enroll a student in a course",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, courseID, err := parsePair("student id", args)
		if err != nil {
			return err
		}
		if err := rt.catalog.Enroll(cmd.Context(), studentID, courseID); err != nil {
			return err
		}
		return formatter(cmd).FormatResult(
			fmt.Sprintf("Enrolled student %d in course %d", studentID, courseID),
			map[string]int64{"student_id": studentID, "course_id": courseID})
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign TEACHER_ID COURSE_ID",
	Short: "Assign a teacher to a course",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		teacherID, courseID, err := parsePair("teacher id", args)
		if err != nil {
			return err
		}
		if err := rt.catalog.Assign(cmd.Context(), teacherID, courseID); err != nil {
			return err
		}
		return formatter(cmd).FormatResult(
			fmt.Sprintf("Assigned teacher %d to course %d", teacherID, courseID),
			map[string]int64{"teacher_id": teacherID, "course_id": courseID})
	},
}

func parsePair(first string, args []string) (int64, int64, error) {
	a, err := parseID(first, args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := parseID("course id", args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func init() {
	rootCmd.AddCommand(enrollCmd, assignCmd)
}
