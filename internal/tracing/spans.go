package tracing

// Span attribute keys.
const (
	AttrProjectorID = "projector.id"
	AttrSelector    = "projector.selector"
	AttrContextKey  = "projector.context_key"
	AttrAdvanced    = "projector.advanced"
	AttrMountID     = "projector.mount_id"

	AttrSetMembers = "set.members"
	AttrNodeCount  = "render.nodes"
	AttrFrame      = "tick.frame"

	AttrErrorKind = "error.kind"
)

// Span names.
const (
	SpanRender    = "projector.render"
	SpanActivate  = "projector.activate"
	SpanTerminate = "projector.terminate"
)
