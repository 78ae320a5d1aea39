package tracing

// Span attribute keys.
const (
	AttrUnitID       = "uow.id"
	AttrUnitNew      = "uow.new"
	AttrUnitDirty    = "uow.dirty"
	AttrUnitRemoved  = "uow.removed"
	AttrTable        = "db.table"
	AttrKind         = "object.kind"
	AttrObjectID     = "object.id"
	AttrRowCount     = "db.rows"
	AttrDirection    = "relation.direction"
	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanCommit       = "uow.commit"
	SpanPrefixMapper = "mapper."
)

// Event names.
const (
	EventPhaseStarted = "uow.phase"
	EventBufferClear  = "uow.cleared"
)
