// Package uow implements the unit of work: it buffers lifecycle
// transitions of domain objects and applies them to storage in one
// ordered commit.
package uow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/georgekorob/patterns-project/internal/domain"
	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/mapper"
	"github.com/georgekorob/patterns-project/internal/pubsub"
	"github.com/georgekorob/patterns-project/internal/tracing"
)

var (
	// ErrNoRegistry is returned by Commit before SetMapperRegistry.
	ErrNoRegistry = errors.New("unit of work has no mapper registry")
	// ErrRemoved is returned when an object already registered for
	// removal is registered as new or dirty.
	ErrRemoved = errors.New("object is registered for removal")
)

// State is the lifecycle of a unit.
type State int

const (
	StateEmpty State = iota
	StateAccumulating
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Change is the payload published for every applied row operation and
// once per successful commit (Kind empty, ID 0).
type Change struct {
	Unit uuid.UUID
	Kind domain.Kind
	ID   int64
}

// Pending holds buffer sizes.
type Pending struct {
	New     int
	Dirty   int
	Removed int
}

// Total returns the number of buffered objects.
func (p Pending) Total() int { return p.New + p.Dirty + p.Removed }

type bucket int

const (
	bucketNone bucket = iota
	bucketNew
	bucketDirty
	bucketRemoved
)

// UnitOfWork buffers new, dirty and removed objects. It is not safe for
// concurrent use.
type UnitOfWork struct {
	id       uuid.UUID
	registry *mapper.Registry
	logger   *log.Logger
	tracer   trace.Tracer
	broker   *pubsub.Broker[Change]

	state   State
	newObjs []domain.Object
	dirty   []domain.Object
	removed []domain.Object
	// where maps each buffered object to its bucket.
	where map[domain.Object]bucket
}

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

// WithRegistry binds the mapper registry used at commit.
func WithRegistry(r *mapper.Registry) Option {
	return func(u *UnitOfWork) {
		u.registry = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(u *UnitOfWork) {
		u.logger = logger
	}
}

// WithTracer sets the tracer for commit spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(u *UnitOfWork) {
		u.tracer = tracer
	}
}

// WithBroker publishes a Change for every applied operation.
func WithBroker(b *pubsub.Broker[Change]) Option {
	return func(u *UnitOfWork) {
		u.broker = b
	}
}

// New creates an empty unit.
func New(opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		id:     uuid.New(),
		logger: log.Nop(),
		tracer: tracing.NoopTracer(),
		where:  make(map[domain.Object]bucket),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

var _ domain.Registrar = (*UnitOfWork)(nil)

// ID returns the unit's correlation id.
func (u *UnitOfWork) ID() uuid.UUID { return u.id }

// State returns the current lifecycle state.
func (u *UnitOfWork) State() State { return u.state }

// SetMapperRegistry binds the registry used at commit.
func (u *UnitOfWork) SetMapperRegistry(r *mapper.Registry) {
	u.registry = r
}

// Pending returns the current buffer sizes.
func (u *UnitOfWork) Pending() Pending {
	return Pending{New: len(u.newObjs), Dirty: len(u.dirty), Removed: len(u.removed)}
}

// RegisterNew buffers obj for insertion.
func (u *UnitOfWork) RegisterNew(obj domain.Object) error {
	switch u.where[obj] {
	case bucketNew:
		return nil
	case bucketRemoved:
		return ErrRemoved
	case bucketDirty:
		u.dirty = without(u.dirty, obj)
	}
	u.newObjs = append(u.newObjs, obj)
	u.track(obj, bucketNew, domain.StateNew)
	return nil
}

// RegisterDirty buffers obj for an update. An object already waiting for
// insertion stays there; its current values are written by the insert.
func (u *UnitOfWork) RegisterDirty(obj domain.Object) error {
	switch u.where[obj] {
	case bucketNew, bucketDirty:
		return nil
	case bucketRemoved:
		return ErrRemoved
	}
	u.dirty = append(u.dirty, obj)
	u.track(obj, bucketDirty, domain.StateDirty)
	return nil
}

// RegisterRemoved buffers obj for deletion. An object waiting for
// insertion is dropped instead, since it has no row.
func (u *UnitOfWork) RegisterRemoved(obj domain.Object) error {
	switch u.where[obj] {
	case bucketRemoved:
		return nil
	case bucketNew:
		u.newObjs = without(u.newObjs, obj)
		delete(u.where, obj)
		obj.SetState(domain.StateTransient)
		u.settle()
		return nil
	case bucketDirty:
		u.dirty = without(u.dirty, obj)
	}
	u.removed = append(u.removed, obj)
	u.track(obj, bucketRemoved, domain.StateRemoved)
	return nil
}

func (u *UnitOfWork) track(obj domain.Object, b bucket, s domain.State) {
	u.where[obj] = b
	obj.SetState(s)
	u.state = StateAccumulating
}

func (u *UnitOfWork) settle() {
	if u.Pending().Total() == 0 {
		u.state = StateEmpty
	}
}

func without(objs []domain.Object, obj domain.Object) []domain.Object {
	for i, o := range objs {
		if o == obj {
			return append(objs[:i], objs[i+1:]...)
		}
	}
	return objs
}

func (u *UnitOfWork) clear() {
	u.newObjs = nil
	u.dirty = nil
	u.removed = nil
	u.where = make(map[domain.Object]bucket)
	u.state = StateEmpty
}

// Commit inserts the new objects, then updates the dirty ones, then
// deletes the removed ones, each in registration order.
//
// The first failing statement stops the commit and its error is returned
// unchanged. Statements applied before it stay applied. The buffers are
// cleared whether or not the commit succeeds.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.registry == nil {
		return ErrNoRegistry
	}
	pending := u.Pending()
	if pending.Total() == 0 {
		return nil
	}

	ctx, span := u.tracer.Start(ctx, tracing.SpanCommit, trace.WithAttributes(
		attribute.String(tracing.AttrUnitID, u.id.String()),
		attribute.Int(tracing.AttrUnitNew, pending.New),
		attribute.Int(tracing.AttrUnitDirty, pending.Dirty),
		attribute.Int(tracing.AttrUnitRemoved, pending.Removed),
	))
	defer span.End()

	u.state = StateCommitting
	defer func() {
		u.clear()
		span.AddEvent(tracing.EventBufferClear)
	}()

	u.logger.Debug(log.CatUoW, "Commit started", "unit", u.id,
		"new", pending.New, "dirty", pending.Dirty, "removed", pending.Removed)

	if err := u.insertNew(ctx, span); err != nil {
		return u.fail(span, err)
	}
	if err := u.updateDirty(ctx, span); err != nil {
		return u.fail(span, err)
	}
	if err := u.deleteRemoved(ctx, span); err != nil {
		return u.fail(span, err)
	}

	u.publish(pubsub.CommittedEvent, "", 0)
	u.logger.Info(log.CatUoW, "Commit finished", "unit", u.id, "rows", pending.Total())
	return nil
}

func (u *UnitOfWork) fail(span trace.Span, err error) error {
	tracing.RecordError(span, err)
	u.logger.ErrorErr(log.CatUoW, "Commit failed", err, "unit", u.id)
	return err
}

func (u *UnitOfWork) insertNew(ctx context.Context, span trace.Span) error {
	span.AddEvent(tracing.EventPhaseStarted, trace.WithAttributes(attribute.String("phase", "insert")))
	for _, obj := range u.newObjs {
		m, err := u.registry.For(obj)
		if err != nil {
			return err
		}
		id, err := m.Insert(ctx, obj)
		if err != nil {
			return err
		}
		obj.SetID(id)
		obj.SetState(domain.StateClean)
		u.publish(pubsub.CreatedEvent, obj.Kind(), id)
	}
	return nil
}

func (u *UnitOfWork) updateDirty(ctx context.Context, span trace.Span) error {
	span.AddEvent(tracing.EventPhaseStarted, trace.WithAttributes(attribute.String("phase", "update")))
	for _, obj := range u.dirty {
		m, err := u.registry.For(obj)
		if err != nil {
			return err
		}
		if err := m.Update(ctx, obj); err != nil {
			return err
		}
		obj.SetState(domain.StateClean)
		u.publish(pubsub.UpdatedEvent, obj.Kind(), obj.ID())
	}
	return nil
}

func (u *UnitOfWork) deleteRemoved(ctx context.Context, span trace.Span) error {
	span.AddEvent(tracing.EventPhaseStarted, trace.WithAttributes(attribute.String("phase", "delete")))
	for _, obj := range u.removed {
		m, err := u.registry.For(obj)
		if err != nil {
			return err
		}
		if err := m.Delete(ctx, obj.ID()); err != nil {
			return err
		}
		obj.SetState(domain.StateTransient)
		u.publish(pubsub.DeletedEvent, obj.Kind(), obj.ID())
	}
	return nil
}

func (u *UnitOfWork) publish(t pubsub.EventType, kind domain.Kind, id int64) {
	if u.broker == nil {
		return
	}
	u.broker.Publish(t, Change{Unit: u.id, Kind: kind, ID: id})
}
