// Package atlas marshals mesh buffers into an atlas engine and decodes the
// generated charts, UVs and chart images back out of it.
package atlas

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Atlas owns one engine instance for its whole lifetime.
//
// An Atlas is not safe for concurrent mutation. Read-only queries may run
// concurrently once Generate has returned, as long as nothing calls
// AddMesh, AddUvMesh or Generate at the same time.
type Atlas struct {
	id     uuid.UUID
	engine Engine
	record *Record
	closed bool

	log    *zap.Logger
	report io.Writer
}

// Option configures an Atlas.
type Option func(*Atlas)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *zap.Logger) Option {
	return func(a *Atlas) {
		if l != nil {
			a.log = l
		}
	}
}

// WithReportWriter sets where the verbose generation summary is written.
func WithReportWriter(w io.Writer) Option {
	return func(a *Atlas) {
		if w != nil {
			a.report = w
		}
	}
}

// New creates an atlas that takes ownership of engine. Call Close to release it.
func New(engine Engine, opts ...Option) *Atlas {
	a := &Atlas{
		id:     uuid.New(),
		engine: engine,
		log:    zap.NewNop(),
		report: os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(zap.Stringer("atlas", a.id))
	a.log.Debug("atlas created")
	return a
}

// ID returns the handle identifier used in log output.
func (a *Atlas) ID() uuid.UUID { return a.id }

// Close releases the engine. Calling Close more than once is a no-op.
func (a *Atlas) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.record = nil
	a.engine.Destroy()
	a.engine = nil
	a.log.Debug("atlas destroyed")
	return nil
}

// AddMesh validates in and submits it to the engine.
func (a *Atlas) AddMesh(in MeshInput) error {
	if a.closed {
		return ErrClosed
	}

	decl, err := BuildMeshDecl(in)
	if err != nil {
		return err
	}

	if res := a.engine.AddMesh(decl); res != AddMeshSuccess {
		a.log.Warn("mesh rejected", zap.Stringer("reason", res))
		return &MeshAdditionError{Kind: res}
	}

	a.log.Debug("mesh added",
		zap.Uint32("vertices", decl.VertexCount),
		zap.Uint32("triangles", decl.FaceCount()))
	return nil
}

// AddUvMesh validates in and submits it to the engine.
func (a *Atlas) AddUvMesh(in UvMeshInput) error {
	if a.closed {
		return ErrClosed
	}

	decl, err := BuildUvMeshDecl(in)
	if err != nil {
		return err
	}

	if res := a.engine.AddUvMesh(decl); res != AddMeshSuccess {
		a.log.Warn("uv mesh rejected", zap.Stringer("reason", res))
		return &MeshAdditionError{Kind: res}
	}

	a.log.Debug("uv mesh added",
		zap.Uint32("vertices", decl.VertexCount),
		zap.Uint32("triangles", decl.FaceCount()))
	return nil
}

// Generate charts and packs every mesh added so far. It blocks until the
// engine finishes. When verbose is set a short summary is written to the
// report writer.
func (a *Atlas) Generate(chart ChartOptions, pack PackOptions, verbose bool) error {
	if a.closed {
		return ErrClosed
	}

	a.record = nil
	rec, err := a.engine.Generate(chart, pack)
	if err != nil {
		a.log.Error("generation failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if rec == nil {
		return fmt.Errorf("%w: engine returned no record", ErrGeneration)
	}
	if int(rec.AtlasCount) > len(rec.Utilization) {
		return fmt.Errorf("%w: %d atlases but %d utilization values",
			ErrInternalConsistency, rec.AtlasCount, len(rec.Utilization))
	}
	a.record = rec

	a.log.Info("atlas generated",
		zap.Uint32("charts", rec.ChartCount),
		zap.Uint32("atlases", rec.AtlasCount),
		zap.Uint32("width", rec.Width),
		zap.Uint32("height", rec.Height))

	if verbose {
		a.writeSummary()
	}
	return nil
}

func (a *Atlas) writeSummary() {
	var utilization float32
	if len(a.record.Utilization) > 0 {
		utilization = a.record.Utilization[0]
	}
	fmt.Fprintln(a.report, "--- Generated Atlas ---")
	fmt.Fprintf(a.report, "Utilization: %f%%\n", utilization*100)
	fmt.Fprintf(a.report, "Charts: %d\n", a.record.ChartCount)
	fmt.Fprintf(a.report, "Size: %dx%d\n", a.record.Width, a.record.Height)
	fmt.Fprintln(a.report)
}

// generated returns the current record or the reason there is none.
func (a *Atlas) generated() (*Record, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if a.record == nil {
		return nil, ErrNotGenerated
	}
	return a.record, nil
}

// AtlasCount returns the number of atlas layers.
func (a *Atlas) AtlasCount() (uint32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	return rec.AtlasCount, nil
}

// MeshCount returns the number of generated meshes.
func (a *Atlas) MeshCount() (uint32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	return uint32(len(rec.Meshes)), nil
}

// ChartCount returns the total number of charts across all atlases.
func (a *Atlas) ChartCount() (uint32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	return rec.ChartCount, nil
}

// Width returns the atlas width in texels.
func (a *Atlas) Width() (uint32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	return rec.Width, nil
}

// Height returns the atlas height in texels.
func (a *Atlas) Height() (uint32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	return rec.Height, nil
}

// TexelsPerUnit returns the unit to texel scale used for packing.
func (a *Atlas) TexelsPerUnit() (float32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	return rec.TexelsPerUnit, nil
}

// Utilization returns the fraction of texels covered by charts in atlas i.
func (a *Atlas) Utilization(i int) (float32, error) {
	rec, err := a.generated()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= int(rec.AtlasCount) {
		return 0, fmt.Errorf("%w: atlas index %d out of bounds for atlas with %d atlases",
			ErrIndexOutOfRange, i, rec.AtlasCount)
	}
	return rec.Utilization[i], nil
}
