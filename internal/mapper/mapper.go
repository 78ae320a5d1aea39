// Package mapper moves domain objects between memory and their tables.
// One Mapper exists per registered schema; all of them share the
// registry's *sql.DB.
package mapper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/tracing"
)

// Direction selects which side of a relation Related walks.
type Direction string

const (
	// Child returns entities that are children of the given object.
	Child Direction = "child"
	// Parent returns entities that are parents of the given object.
	Parent Direction = "parent"
)

// Mapper performs the row operations for one schema.
type Mapper struct {
	db       *sql.DB
	schema   Schema
	registry *Registry
	logger   *log.Logger
	tracer   trace.Tracer

	selectColumns string
}

func newMapper(r *Registry, schema Schema) *Mapper {
	return &Mapper{
		db:            r.db,
		schema:        schema,
		registry:      r,
		logger:        r.logger,
		tracer:        r.tracer,
		selectColumns: "id, " + strings.Join(schema.Columns, ", "),
	}
}

// Schema returns the descriptor this mapper was built from.
func (m *Mapper) Schema() Schema { return m.schema }

// Table returns the table name.
func (m *Mapper) Table() string { return m.schema.Table }

func (m *Mapper) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(tracing.AttrTable, m.schema.Table))
	return m.tracer.Start(ctx, tracing.SpanPrefixMapper+op, trace.WithAttributes(attrs...))
}

// scan reads the id followed by the schema columns into a fresh object.
func (m *Mapper) scan(scanner interface{ Scan(...any) error }) (domain.Object, error) {
	obj := m.schema.New()
	var id int64
	dest := append([]any{&id}, obj.Targets()...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	obj.SetID(id)
	obj.SetState(domain.StateClean)
	return obj, nil
}

func (m *Mapper) query(ctx context.Context, query string, args ...any) ([]domain.Object, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var objects []domain.Object
	for rows.Next() {
		obj, err := m.scan(rows)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return objects, nil
}

// All returns every row of the table ordered by id. Each call builds new
// objects.
func (m *Mapper) All(ctx context.Context) ([]domain.Object, error) {
	ctx, span := m.startSpan(ctx, "all")
	defer span.End()

	objects, err := m.query(ctx, `SELECT `+m.selectColumns+` FROM `+m.schema.Table+` ORDER BY id`)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to list %s: %w", m.schema.Table, err)
	}
	span.SetAttributes(attribute.Int(tracing.AttrRowCount, len(objects)))
	return objects, nil
}

// Where returns the rows whose column equals value, ordered by id.
func (m *Mapper) Where(ctx context.Context, column string, value any) ([]domain.Object, error) {
	if !m.schema.hasColumn(column) {
		return nil, fmt.Errorf("%s has no column %q", m.schema.Table, column)
	}
	ctx, span := m.startSpan(ctx, "where")
	defer span.End()

	objects, err := m.query(ctx,
		`SELECT `+m.selectColumns+` FROM `+m.schema.Table+` WHERE `+column+` = ? ORDER BY id`,
		value,
	)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to query %s by %s: %w", m.schema.Table, column, err)
	}
	span.SetAttributes(attribute.Int(tracing.AttrRowCount, len(objects)))
	return objects, nil
}

// FindByID returns the row with the given id.
// Returns RecordNotFoundError if no row matches.
func (m *Mapper) FindByID(ctx context.Context, id int64) (domain.Object, error) {
	ctx, span := m.startSpan(ctx, "find", attribute.Int64(tracing.AttrObjectID, id))
	defer span.End()

	row := m.db.QueryRowContext(ctx,
		`SELECT `+m.selectColumns+` FROM `+m.schema.Table+` WHERE id = ?`,
		id,
	)
	obj, err := m.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &RecordNotFoundError{Table: m.schema.Table, ID: id}
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to find %s by id: %w", m.schema.Table, err)
	}
	return obj, nil
}

// Last returns the row with the highest id.
// Returns RecordNotFoundError if the table is empty.
func (m *Mapper) Last(ctx context.Context) (domain.Object, error) {
	ctx, span := m.startSpan(ctx, "last")
	defer span.End()

	row := m.db.QueryRowContext(ctx,
		`SELECT `+m.selectColumns+` FROM `+m.schema.Table+` ORDER BY id DESC LIMIT 1`,
	)
	obj, err := m.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &RecordNotFoundError{Table: m.schema.Table}
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to find last %s: %w", m.schema.Table, err)
	}
	return obj, nil
}

// Count returns the number of rows in the table.
func (m *Mapper) Count(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+m.schema.Table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", m.schema.Table, err)
	}
	return n, nil
}

// Insert writes obj as a new row and returns the generated id. The
// object itself is not modified; the unit of work assigns the id.
func (m *Mapper) Insert(ctx context.Context, obj domain.Object) (int64, error) {
	ctx, span := m.startSpan(ctx, "insert", attribute.String(tracing.AttrKind, string(obj.Kind())))
	defer span.End()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(m.schema.Columns)), ", ")
	result, err := m.db.ExecContext(ctx,
		`INSERT INTO `+m.schema.Table+` (`+strings.Join(m.schema.Columns, ", ")+`) VALUES (`+placeholders+`)`,
		obj.Values()...,
	)
	if err != nil {
		tracing.RecordError(span, err)
		return 0, &DbCommitError{Table: m.schema.Table, Err: err}
	}
	id, err := result.LastInsertId()
	if err != nil {
		tracing.RecordError(span, err)
		return 0, &DbCommitError{Table: m.schema.Table, Err: fmt.Errorf("failed to get last insert id: %w", err)}
	}
	span.SetAttributes(attribute.Int64(tracing.AttrObjectID, id))
	m.logger.Debug(log.CatMapper, "Inserted row", "table", m.schema.Table, "id", id)
	return id, nil
}

// Update overwrites the row matching obj's id with its current values.
// An id that matches no row is not an error.
func (m *Mapper) Update(ctx context.Context, obj domain.Object) error {
	ctx, span := m.startSpan(ctx, "update", attribute.Int64(tracing.AttrObjectID, obj.ID()))
	defer span.End()

	assignments := make([]string, len(m.schema.Columns))
	for i, col := range m.schema.Columns {
		assignments[i] = col + " = ?"
	}
	args := append(obj.Values(), obj.ID())

	result, err := m.db.ExecContext(ctx,
		`UPDATE `+m.schema.Table+` SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		tracing.RecordError(span, err)
		return &DbUpdateError{Table: m.schema.Table, Err: err}
	}
	if n, err := result.RowsAffected(); err == nil {
		span.SetAttributes(attribute.Int64(tracing.AttrRowCount, n))
		if n == 0 {
			m.logger.Warn(log.CatMapper, "Update matched no row", "table", m.schema.Table, "id", obj.ID())
		}
	}
	return nil
}

// Delete removes the row with the given id. An id that matches no row is
// not an error.
func (m *Mapper) Delete(ctx context.Context, id int64) error {
	ctx, span := m.startSpan(ctx, "delete", attribute.Int64(tracing.AttrObjectID, id))
	defer span.End()

	if _, err := m.db.ExecContext(ctx, `DELETE FROM `+m.schema.Table+` WHERE id = ?`, id); err != nil {
		tracing.RecordError(span, err)
		return &DbDeleteError{Table: m.schema.Table, Err: err}
	}
	m.logger.Debug(log.CatMapper, "Deleted row", "table", m.schema.Table, "id", id)
	return nil
}

// AddParent inserts one edge with obj as child of parent, in the relation
// table of the two kinds, and returns the edge id. Both objects must
// already have ids.
func (m *Mapper) AddParent(ctx context.Context, obj, parent domain.Object) (int64, error) {
	relation, err := m.registry.Get(domain.RelationKind(obj.Kind(), parent.Kind()))
	if err != nil {
		return 0, err
	}
	return relation.Insert(ctx, domain.NewRelation(relation.schema.Kind, obj.ID(), parent.ID()))
}

// Related returns the entities of kind other joined to obj through their
// relation table. With Child they are children of obj, with Parent they
// are its parents. Each entity appears once, ordered by id.
func (m *Mapper) Related(ctx context.Context, obj domain.Object, other domain.Kind, dir Direction) ([]domain.Object, error) {
	target, err := m.registry.Get(other)
	if err != nil {
		return nil, err
	}

	var relationKind domain.Kind
	var joinColumn, matchColumn string
	switch dir {
	case Child:
		relationKind = domain.RelationKind(other, obj.Kind())
	case Parent:
		relationKind = domain.RelationKind(obj.Kind(), other)
	default:
		return nil, fmt.Errorf("unknown relation direction %q", dir)
	}
	relation, err := m.registry.Schema(relationKind)
	if err != nil {
		return nil, err
	}
	// Relation columns are (child id, parent id).
	if dir == Child {
		joinColumn, matchColumn = relation.Columns[0], relation.Columns[1]
	} else {
		joinColumn, matchColumn = relation.Columns[1], relation.Columns[0]
	}

	ctx, span := m.startSpan(ctx, "related",
		attribute.String(tracing.AttrDirection, string(dir)),
		attribute.Int64(tracing.AttrObjectID, obj.ID()),
	)
	defer span.End()

	columns := make([]string, 0, len(target.schema.Columns)+1)
	columns = append(columns, "o.id")
	for _, col := range target.schema.Columns {
		columns = append(columns, "o."+col)
	}
	objects, err := target.query(ctx,
		`SELECT DISTINCT `+strings.Join(columns, ", ")+
			` FROM `+target.schema.Table+` o`+
			` JOIN `+relation.Table+` r ON r.`+joinColumn+` = o.id`+
			` WHERE r.`+matchColumn+` = ? ORDER BY o.id`,
		obj.ID(),
	)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to query %s related to %s %d: %w", other, obj.Kind(), obj.ID(), err)
	}
	span.SetAttributes(attribute.Int(tracing.AttrRowCount, len(objects)))
	return objects, nil
}
