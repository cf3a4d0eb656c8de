package atlas

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// fakeEngine records calls and returns canned results.
type fakeEngine struct {
	addResult AddMeshError
	record    *Record
	genErr    error

	meshDecls   []*MeshDecl
	uvMeshDecls []*UvMeshDecl
	generated   int
	destroyed   int
}

func (e *fakeEngine) AddMesh(decl *MeshDecl) AddMeshError {
	e.meshDecls = append(e.meshDecls, decl)
	return e.addResult
}

func (e *fakeEngine) AddUvMesh(decl *UvMeshDecl) AddMeshError {
	e.uvMeshDecls = append(e.uvMeshDecls, decl)
	return e.addResult
}

func (e *fakeEngine) Generate(ChartOptions, PackOptions) (*Record, error) {
	e.generated++
	return e.record, e.genErr
}

func (e *fakeEngine) Destroy() { e.destroyed++ }

// quadRecord is a single-mesh, single-chart 8x4 atlas.
func quadRecord() *Record {
	return &Record{
		AtlasCount:    1,
		ChartCount:    1,
		Width:         8,
		Height:        4,
		TexelsPerUnit: 4,
		Utilization:   []float32{0.5},
		Meshes: []MeshRecord{{
			Vertices: []Vertex{
				{UV: [2]float32{0, 0}, Xref: 0},
				{UV: [2]float32{8, 0}, Xref: 1},
				{UV: [2]float32{8, 4}, Xref: 2},
				{UV: [2]float32{0, 4}, Xref: 3},
			},
			Indices: []uint32{0, 1, 2, 0, 2, 3},
		}},
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	eng := &fakeEngine{}
	a := New(eng)

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if eng.destroyed != 1 {
		t.Errorf("expected 1 destroy, got %d", eng.destroyed)
	}

	if err := a.AddMesh(quadInput()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := a.MeshCount(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCloseAfterFailures(t *testing.T) {
	eng := &fakeEngine{addResult: AddMeshIndexOutOfRange, genErr: errors.New("boom")}
	func() {
		a := New(eng)
		defer a.Close()

		_ = a.AddMesh(quadInput())
		_ = a.Generate(DefaultChartOptions(), DefaultPackOptions(), false)
	}()

	if eng.destroyed != 1 {
		t.Errorf("expected 1 destroy, got %d", eng.destroyed)
	}
}

func TestAddMeshShapeErrorSkipsEngine(t *testing.T) {
	eng := &fakeEngine{}
	a := New(eng)
	defer a.Close()

	in := quadInput()
	in.Indices = NewBuffer(make([]uint32, 4), 2, 2)
	if err := a.AddMesh(in); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	if len(eng.meshDecls) != 0 {
		t.Errorf("engine received %d declarations", len(eng.meshDecls))
	}

	if err := a.AddUvMesh(UvMeshInput{UVs: NewBuffer(make([]float32, 3), 1, 3)}); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	if len(eng.uvMeshDecls) != 0 {
		t.Errorf("engine received %d uv declarations", len(eng.uvMeshDecls))
	}
}

func TestAddMeshRejected(t *testing.T) {
	eng := &fakeEngine{addResult: AddMeshIndexOutOfRange}
	a := New(eng)
	defer a.Close()

	err := a.AddMesh(quadInput())
	if !errors.Is(err, ErrMeshAddition) {
		t.Fatalf("expected ErrMeshAddition, got %v", err)
	}

	var addErr *MeshAdditionError
	if !errors.As(err, &addErr) {
		t.Fatalf("expected *MeshAdditionError, got %T", err)
	}
	if addErr.Kind != AddMeshIndexOutOfRange {
		t.Errorf("expected IndexOutOfRange, got %v", addErr.Kind)
	}
	if !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected reason in message, got %q", err.Error())
	}
}

func TestAddUvMeshForwards(t *testing.T) {
	eng := &fakeEngine{}
	a := New(eng)
	defer a.Close()

	in := UvMeshInput{
		UVs:     Rows2([][2]float32{{0, 0}, {1, 0}, {0, 1}}),
		Indices: Rows3([][3]uint32{{0, 1, 2}}),
	}
	if err := a.AddUvMesh(in); err != nil {
		t.Fatalf("AddUvMesh failed: %v", err)
	}
	if len(eng.uvMeshDecls) != 1 || eng.uvMeshDecls[0].VertexCount != 3 {
		t.Errorf("unexpected declarations: %+v", eng.uvMeshDecls)
	}
}

func TestAccessorsBeforeGenerate(t *testing.T) {
	a := New(&fakeEngine{})
	defer a.Close()

	checks := map[string]func() error{
		"AtlasCount":    func() error { _, err := a.AtlasCount(); return err },
		"MeshCount":     func() error { _, err := a.MeshCount(); return err },
		"ChartCount":    func() error { _, err := a.ChartCount(); return err },
		"Width":         func() error { _, err := a.Width(); return err },
		"Height":        func() error { _, err := a.Height(); return err },
		"TexelsPerUnit": func() error { _, err := a.TexelsPerUnit(); return err },
		"Utilization":   func() error { _, err := a.Utilization(0); return err },
		"GetMesh":       func() error { _, err := a.GetMesh(0); return err },
		"ChartImage":    func() error { _, err := a.ChartImage(0); return err },
	}

	for name, check := range checks {
		if err := check(); !errors.Is(err, ErrNotGenerated) {
			t.Errorf("%s: expected ErrNotGenerated, got %v", name, err)
		}
	}
}

func TestGenerateAccessors(t *testing.T) {
	eng := &fakeEngine{record: quadRecord()}
	a := New(eng)
	defer a.Close()

	if err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if n, _ := a.AtlasCount(); n != 1 {
		t.Errorf("AtlasCount = %d, want 1", n)
	}
	if n, _ := a.MeshCount(); n != 1 {
		t.Errorf("MeshCount = %d, want 1", n)
	}
	if n, _ := a.ChartCount(); n != 1 {
		t.Errorf("ChartCount = %d, want 1", n)
	}
	if w, _ := a.Width(); w != 8 {
		t.Errorf("Width = %d, want 8", w)
	}
	if h, _ := a.Height(); h != 4 {
		t.Errorf("Height = %d, want 4", h)
	}
	if tpu, _ := a.TexelsPerUnit(); tpu != 4 {
		t.Errorf("TexelsPerUnit = %v, want 4", tpu)
	}

	u, err := a.Utilization(0)
	if err != nil || u != 0.5 {
		t.Errorf("Utilization(0) = %v, %v", u, err)
	}
	for _, i := range []int{-1, 1, 5} {
		if _, err := a.Utilization(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Utilization(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
}

func TestGenerateFailure(t *testing.T) {
	eng := &fakeEngine{record: quadRecord()}
	a := New(eng)
	defer a.Close()

	if err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	eng.record, eng.genErr = nil, errors.New("packer exploded")
	err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), false)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if !strings.Contains(err.Error(), "packer exploded") {
		t.Errorf("expected engine cause in message, got %q", err.Error())
	}

	// A failed generation drops the previous record.
	if _, err := a.MeshCount(); !errors.Is(err, ErrNotGenerated) {
		t.Errorf("expected ErrNotGenerated after failure, got %v", err)
	}
}

func TestGenerateVerboseSummary(t *testing.T) {
	var buf bytes.Buffer
	a := New(&fakeEngine{record: quadRecord()}, WithReportWriter(&buf))
	defer a.Close()

	if err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), true); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"--- Generated Atlas ---", "Utilization: 50", "Charts: 1", "Size: 8x4"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no summary when not verbose, got %q", buf.String())
	}
}

func TestGenerateInconsistentRecord(t *testing.T) {
	rec := quadRecord()
	rec.AtlasCount = 2
	a := New(&fakeEngine{record: rec})
	defer a.Close()

	err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), false)
	if !errors.Is(err, ErrInternalConsistency) {
		t.Errorf("expected ErrInternalConsistency, got %v", err)
	}
}
