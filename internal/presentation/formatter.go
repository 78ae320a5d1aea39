// Package presentation renders catalog data for the CLI, as JSON or as
// text tables.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Formatter writes command output.
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter creates a formatter. With asJSON set every value is written
// as indented JSON.
func NewFormatter(writer io.Writer, asJSON bool) *Formatter {
	return &Formatter{
		writer: writer,
		json:   asJSON,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) table(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// FormatCategories writes the category listing.
func (f *Formatter) FormatCategories(categories []CategoryDTO) error {
	if f.json {
		return f.encode(categories)
	}
	rows := make([][]string, len(categories))
	for i, c := range categories {
		parent := ""
		if c.ParentID != 0 {
			parent = strconv.FormatInt(c.ParentID, 10)
		}
		rows[i] = []string{strconv.FormatInt(c.ID, 10), c.Name, parent, strconv.Itoa(c.CourseCount)}
	}
	return f.table([]string{"ID", "NAME", "PARENT", "COURSES"}, rows)
}

// FormatCategoryTree writes categories indented under their parents.
func (f *Formatter) FormatCategoryTree(categories []CategoryDTO) error {
	if f.json {
		return f.encode(categories)
	}
	children := make(map[int64][]CategoryDTO)
	known := make(map[int64]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	for _, c := range categories {
		parent := c.ParentID
		if !known[parent] {
			parent = 0
		}
		children[parent] = append(children[parent], c)
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	var b strings.Builder
	seen := make(map[int64]bool)
	var walk func(parent int64, depth int)
	walk = func(parent int64, depth int) {
		for _, c := range children[parent] {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			fmt.Fprintf(&b, "%s%s (%d) [%d courses]\n", strings.Repeat("  ", depth), c.Name, c.ID, c.CourseCount)
			walk(c.ID, depth+1)
		}
	}
	walk(0, 0)
	_, err := io.WriteString(f.writer, b.String())
	return err
}

// FormatCourses writes a course list.
func (f *Formatter) FormatCourses(courses []CourseDTO) error {
	if f.json {
		return f.encode(courses)
	}
	rows := make([][]string, len(courses))
	for i, c := range courses {
		rows[i] = []string{strconv.FormatInt(c.ID, 10), c.Name, c.Type, c.Link}
	}
	return f.table([]string{"ID", "NAME", "TYPE", "LINK"}, rows)
}

// FormatUsers writes a teacher or student list.
func (f *Formatter) FormatUsers(users []UserDTO) error {
	if f.json {
		return f.encode(users)
	}
	rows := make([][]string, len(users))
	for i, u := range users {
		rows[i] = []string{strconv.FormatInt(u.ID, 10), u.Kind, u.FirstName, u.LastName}
	}
	return f.table([]string{"ID", "KIND", "FIRST NAME", "LAST NAME"}, rows)
}

// FormatResult writes a single created or changed value.
func (f *Formatter) FormatResult(message string, value any) error {
	if f.json {
		return f.encode(value)
	}
	_, err := fmt.Fprintln(f.writer, message)
	return err
}
