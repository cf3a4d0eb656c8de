package atlas

// Parametrize generates an atlas for a single mesh with default options and
// returns its result. The engine is destroyed before returning.
func Parametrize(engine Engine, in MeshInput, opts ...Option) (*MeshResult, error) {
	a := New(engine, opts...)
	defer a.Close()

	if err := a.AddMesh(in); err != nil {
		return nil, err
	}
	if err := a.Generate(DefaultChartOptions(), DefaultPackOptions(), false); err != nil {
		return nil, err
	}
	return a.GetMesh(0)
}
