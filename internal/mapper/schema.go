package mapper

import (
	"fmt"
	"regexp"

	"github.com/georgekorob/patterns-project/internal/domain"
)

// identifierPattern restricts table and column names, which are
// interpolated into SQL text.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Schema is the static mapping between a kind and its table. Columns
// follow the order of the kind's Values and Targets; the id column is
// implicit.
type Schema struct {
	Kind    domain.Kind
	Table   string
	Columns []string
	// New returns an empty instance to scan rows into.
	New func() domain.Object
}

// RelationSchema describes the edge table joining child to parent.
func RelationSchema(child, parent domain.Kind) Schema {
	kind := domain.RelationKind(child, parent)
	return Schema{
		Kind:    kind,
		Table:   string(kind),
		Columns: []string{string(child) + "_id", string(parent) + "_pid"},
		New: func() domain.Object {
			return domain.NewRelation(kind, 0, 0)
		},
	}
}

// Validate checks the schema against a fresh instance of its kind.
func (s Schema) Validate() error {
	if s.Kind == "" {
		return fmt.Errorf("schema: empty kind")
	}
	if !identifierPattern.MatchString(s.Table) {
		return fmt.Errorf("schema %s: invalid table name %q", s.Kind, s.Table)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema %s: no columns", s.Kind)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		if !identifierPattern.MatchString(col) || col == "id" {
			return fmt.Errorf("schema %s: invalid column name %q", s.Kind, col)
		}
		if seen[col] {
			return fmt.Errorf("schema %s: duplicate column %q", s.Kind, col)
		}
		seen[col] = true
	}
	if s.New == nil {
		return fmt.Errorf("schema %s: missing constructor", s.Kind)
	}

	obj := s.New()
	if obj.Kind() != s.Kind {
		return fmt.Errorf("schema %s: constructor builds kind %s", s.Kind, obj.Kind())
	}
	if n := len(obj.Values()); n != len(s.Columns) {
		return fmt.Errorf("schema %s: %d columns but %d values", s.Kind, len(s.Columns), n)
	}
	if n := len(obj.Targets()); n != len(s.Columns) {
		return fmt.Errorf("schema %s: %d columns but %d scan targets", s.Kind, len(s.Columns), n)
	}
	return nil
}

func (s Schema) hasColumn(name string) bool {
	for _, col := range s.Columns {
		if col == name {
			return true
		}
	}
	return false
}
