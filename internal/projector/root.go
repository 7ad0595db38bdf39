package projector

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/arbor/internal/engine"
	"github.com/zjrosen/arbor/internal/faults"
	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/log"
	"github.com/zjrosen/arbor/internal/metrics"
	"github.com/zjrosen/arbor/internal/scope"
	"github.com/zjrosen/arbor/internal/tracing"
	"github.com/zjrosen/arbor/internal/vnode"
)

// DefaultSelector is the root element used when none is configured.
const DefaultSelector = "div"

// Options configure a Root.
type Options struct {
	// Selector of the root element wrapping the set's output.
	Selector string
	// Properties merged onto the root element.
	Properties vnode.Properties
	// ContextKey names the set the root presents.
	ContextKey scope.Key
	// Advanced enables event interception mode: handled events never
	// schedule a render on their own.
	Advanced bool
}

// Option configures a Root.
type Option func(*Root)

// WithSelector sets the root element selector.
func WithSelector(selector string) Option {
	return func(r *Root) {
		if selector != "" {
			r.opts.Selector = selector
		}
	}
}

// WithProperties merges props onto the root element.
func WithProperties(props vnode.Properties) Option {
	return func(r *Root) {
		r.opts.Properties = r.opts.Properties.Merge(props)
	}
}

// WithContextKey selects the set the root presents.
func WithContextKey(key scope.Key) Option {
	return func(r *Root) {
		if key != "" {
			r.opts.ContextKey = key
		}
	}
}

// WithAdvancedEvents toggles event interception mode.
func WithAdvancedEvents(advanced bool) Option {
	return func(r *Root) {
		r.opts.Advanced = advanced
	}
}

// WithTracer records a span for every render pass.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Root) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithMetrics records render passes and requests on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Root) {
		r.metrics = c
	}
}

// binding is the state of one activation. The render function holds it so
// calls after termination can be detected.
type binding struct {
	ctx   *scope.Context
	alive bool
}

// Root is a chip that presents a renderable set through an engine projector.
type Root struct {
	lifecycle.Base

	id      string
	engine  engine.Engine
	mount   engine.MountPoint
	opts    Options
	tracer  trace.Tracer
	metrics *metrics.Collector

	projector engine.Projector
	handle    engine.Handle
	fn        engine.RenderFunc
	current   *binding
	frame     uint64 // last tick seen, recorded on render spans
}

var _ lifecycle.Chip = (*Root)(nil)

// NewRoot creates an inactive root that will attach under mount.
func NewRoot(eng engine.Engine, mount engine.MountPoint, opts ...Option) *Root {
	r := &Root{
		id:     uuid.NewString(),
		engine: eng,
		mount:  mount,
		opts: Options{
			Selector:   DefaultSelector,
			ContextKey: scope.DefaultKey,
		},
		tracer: noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the root's unique identifier.
func (r *Root) ID() string {
	return r.id
}

// Options returns the effective options.
func (r *Root) Options() Options {
	return r.opts
}

// Projector returns the engine projector, or nil while inactive.
func (r *Root) Projector() engine.Projector {
	return r.projector
}

// RenderFunc returns the attached render function, or nil while inactive.
func (r *Root) RenderFunc() engine.RenderFunc {
	return r.fn
}

// Activate verifies the set exists, creates an engine projector and
// attaches the render function under the mount point.
func (r *Root) Activate(ctx *scope.Context) error {
	const op = "projector.activate"
	if err := r.BeginActivate(op, ctx); err != nil {
		return err
	}
	if r.engine == nil || r.mount == nil {
		return faults.Violation(op, "root has no engine or mount point")
	}
	set, err := ctx.Set(r.opts.ContextKey)
	if err != nil {
		return err
	}

	_, span := r.tracer.Start(context.Background(), tracing.SpanActivate, trace.WithAttributes(
		attribute.String(tracing.AttrProjectorID, r.id),
		attribute.String(tracing.AttrSelector, r.opts.Selector),
		attribute.String(tracing.AttrContextKey, string(r.opts.ContextKey)),
		attribute.Bool(tracing.AttrAdvanced, r.opts.Advanced),
		attribute.String(tracing.AttrMountID, r.mount.MountID()),
	))
	defer span.End()

	b := &binding{ctx: ctx, alive: true}
	fn := r.renderFunc(b)
	p := r.engine.NewProjector(engine.Options{Advanced: r.opts.Advanced})
	h, err := p.Append(r.mount, fn)
	if err != nil {
		b.alive = false
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.projector, r.handle, r.fn, r.current = p, h, fn, b
	r.MarkActive(ctx)
	log.Info(log.CatProjector, "root attached",
		"id", r.id, "mount", r.mount.MountID(), "key", r.opts.ContextKey,
		"members", set.Len(), "advanced", r.opts.Advanced)
	return nil
}

// Tick requests a render on the engine projector. Coalescing is the
// engine's concern.
func (r *Root) Tick(info lifecycle.TickInfo) error {
	if err := r.CheckActive("projector.tick"); err != nil {
		return err
	}
	r.frame = info.Frame
	r.projector.ScheduleRender()
	r.metrics.Scheduled(r.id)
	return nil
}

// Terminate detaches the render function from the engine, then discards it
// and the projector. The root may be activated again afterwards.
func (r *Root) Terminate() error {
	const op = "projector.terminate"
	if err := r.CheckActive(op); err != nil {
		return err
	}
	_, span := r.tracer.Start(context.Background(), tracing.SpanTerminate,
		trace.WithAttributes(attribute.String(tracing.AttrProjectorID, r.id)))
	defer span.End()

	err := r.projector.Detach(r.handle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatProjector, "detach failed", err, "id", r.id)
	}

	r.current.alive = false
	r.projector, r.handle, r.fn, r.current, r.frame = nil, 0, nil, nil, 0
	r.MarkInactive()
	r.metrics.Forget(r.id)
	log.Info(log.CatProjector, "root detached", "id", r.id)
	return err
}

func (r *Root) renderFunc(b *binding) engine.RenderFunc {
	return func() *vnode.VNode {
		if !b.alive {
			err := faults.Violation("projector.render", "render function called after termination")
			log.Warn(log.CatProjector, err.Error(), "id", r.id)
			return nil
		}
		return r.render(b.ctx)
	}
}

func (r *Root) render(ctx *scope.Context) *vnode.VNode {
	start := time.Now()
	_, span := r.tracer.Start(context.Background(), tracing.SpanRender,
		trace.WithAttributes(
			attribute.String(tracing.AttrProjectorID, r.id),
			attribute.Int64(tracing.AttrFrame, int64(r.frame)),
		))
	defer span.End()

	set, err := ctx.Set(r.opts.ContextKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(tracing.AttrErrorKind, faults.KindOf(err).String()))
		log.ErrorErr(log.CatProjector, "render lost its set", err, "id", r.id)
		return vnode.H(r.opts.Selector, r.opts.Properties)
	}

	root := vnode.H(r.opts.Selector, r.opts.Properties, set.Render()...)

	nodes := 0
	root.Walk(func([]int, *vnode.VNode) bool {
		nodes++
		return true
	})
	span.SetAttributes(
		attribute.Int(tracing.AttrSetMembers, set.Len()),
		attribute.Int(tracing.AttrNodeCount, nodes),
	)
	r.metrics.Rendered(r.id, set.Len(), time.Since(start))
	return root
}

// IsContractViolation reports whether err came from an out-of-order
// lifecycle call.
func IsContractViolation(err error) bool {
	return errors.Is(err, faults.ErrContractViolation)
}
