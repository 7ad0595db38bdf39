package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/zjrosen/arbor/internal/engine/dom"
	"github.com/zjrosen/arbor/internal/lifecycle"
	"github.com/zjrosen/arbor/internal/metrics"
)

type renderOptions struct {
	ticks int
	step  time.Duration
	diff  bool
}

func newRenderCmd(o *options) *cobra.Command {
	ro := &renderOptions{}
	c := &cobra.Command{
		Use:   "render",
		Short: "Render the scene headlessly and print the document markup",
		Long: `Mount the scene on an in-memory document, run a fixed number of ticks and
print the live markup after the last one. With --diff, print a patch of the
markup after every tick instead.

Example:
  arbor render --scene scene.yaml --ticks 3
  arbor render --ticks 5 --diff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.runRender(cmd, ro)
		},
	}
	c.Flags().IntVarP(&ro.ticks, "ticks", "n", 1, "number of ticks to run")
	c.Flags().DurationVar(&ro.step, "step", 0, "simulated time between ticks (default: the tick interval)")
	c.Flags().BoolVar(&ro.diff, "diff", false, "print a patch of the markup after every tick")
	return c
}

func (o *options) runRender(cmd *cobra.Command, ro *renderOptions) (err error) {
	if ro.ticks < 1 {
		return errors.New("--ticks must be at least 1")
	}
	step := ro.step
	if step <= 0 {
		step = o.cfg.TickInterval
	}

	cleanup, err := o.initLogging("arbor-render")
	if err != nil {
		return err
	}
	defer cleanup()

	scenePath, err := ensureScene(o, cmd)
	if err != nil {
		return err
	}

	// The document is not a terminal: markdown renders without ANSI styling.
	cfg := o.cfg
	cfg.Markdown.Style = "notty"

	doc := dom.NewDocument()
	app := doc.Mount("app")
	collector := metrics.New()
	h, err := newHost(cmd.Context(), hostConfig{
		cfg:     cfg,
		flags:   o.flagRegistry(),
		scene:   scenePath,
		metrics: collector,
	}, doc, app)
	if err != nil {
		return err
	}
	defer closeHost(h, &err)

	out := cmd.OutOrStdout()
	var (
		last  string
		frame string
	)
	after := func(info lifecycle.TickInfo) {
		collector.Tick()
		doc.Flush()
		frame = app.Markup()
		if ro.diff {
			writeDiff(out, info.Frame, last, frame)
		}
		last = frame
	}

	clock := lifecycle.Frames(ro.ticks, time.Unix(0, 0), step)
	if err := lifecycle.Run(cmd.Context(), h.root, h.scope, clock, after); err != nil {
		return err
	}
	if !ro.diff {
		fmt.Fprintln(out, frame)
	}
	return nil
}

// writeDiff prints the patch from prev to next, or a marker when the frame
// left the markup unchanged.
func writeDiff(w io.Writer, frame uint64, prev, next string) {
	fmt.Fprintf(w, "--- frame %d\n", frame)
	if prev == next {
		fmt.Fprintln(w, "(unchanged)")
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prev, next, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	fmt.Fprint(w, dmp.PatchToText(dmp.PatchMake(prev, diffs)))
}
