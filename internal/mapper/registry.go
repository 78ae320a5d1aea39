package mapper

import (
	"database/sql"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/tracing"
)

// Registry holds the schemas known to the process and hands out one
// Mapper per table.
type Registry struct {
	db     *sql.DB
	logger *log.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	schemas map[domain.Kind]Schema
	mappers map[string]*Mapper
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger passed to every mapper.
func WithLogger(logger *log.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for row-operation spans.
func WithTracer(tracer trace.Tracer) RegistryOption {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// NewRegistry creates an empty registry over db.
func NewRegistry(db *sql.DB, opts ...RegistryOption) *Registry {
	r := &Registry{
		db:      db,
		logger:  log.Nop(),
		tracer:  tracing.NoopTracer(),
		schemas: make(map[domain.Kind]Schema),
		mappers: make(map[string]*Mapper),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores schemas. Nothing is stored if any of
// them is invalid or already registered.
func (r *Registry) Register(schemas ...Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[domain.Kind]bool, len(schemas))
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := r.schemas[s.Kind]; ok || pending[s.Kind] {
			return fmt.Errorf("schema %s already registered", s.Kind)
		}
		pending[s.Kind] = true
	}
	for _, s := range schemas {
		r.schemas[s.Kind] = s
		r.logger.Debug(log.CatMapper, "Registered schema", "kind", s.Kind, "table", s.Table)
	}
	return nil
}

// Schema returns the descriptor registered for kind.
func (r *Registry) Schema(kind domain.Kind) (Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schemas[kind]
	if !ok {
		return Schema{}, &UnknownKindError{Kind: kind}
	}
	return s, nil
}

// Kinds returns the registered kinds in no particular order.
func (r *Registry) Kinds() []domain.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]domain.Kind, 0, len(r.schemas))
	for k := range r.schemas {
		kinds = append(kinds, k)
	}
	return kinds
}

// Get returns the mapper for kind, creating it on first use. Later calls
// return the same instance.
func (r *Registry) Get(kind domain.Kind) (*Mapper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schemas[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	if m, ok := r.mappers[s.Table]; ok {
		return m, nil
	}
	m := newMapper(r, s)
	r.mappers[s.Table] = m
	return m, nil
}

// For returns the mapper for obj's kind.
func (r *Registry) For(obj domain.Object) (*Mapper, error) {
	return r.Get(obj.Kind())
}
