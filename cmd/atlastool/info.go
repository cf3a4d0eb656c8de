package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/config"
	"github.com/Faultbox/uvatlas/pkg/atlas"
)

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <mesh.obj>",
		Short: "Show atlas statistics without writing files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), a.cfg, a.log, args[0])
		},
	}
}

// atlasStats is what info prints about a generated atlas.
type atlasStats struct {
	atlases       uint32
	charts        uint32
	width, height uint32
	texelsPerUnit float32
	utilization   []float32
	vertices      int
}

func collectStats(a *atlas.Atlas) (*atlasStats, error) {
	var s atlasStats
	var err error

	if s.atlases, err = a.AtlasCount(); err != nil {
		return nil, err
	}
	if s.charts, err = a.ChartCount(); err != nil {
		return nil, err
	}
	if s.width, err = a.Width(); err != nil {
		return nil, err
	}
	if s.height, err = a.Height(); err != nil {
		return nil, err
	}
	if s.texelsPerUnit, err = a.TexelsPerUnit(); err != nil {
		return nil, err
	}
	for i := 0; i < int(s.atlases); i++ {
		u, err := a.Utilization(i)
		if err != nil {
			return nil, err
		}
		s.utilization = append(s.utilization, u)
	}

	mesh, err := a.GetMesh(0)
	if err != nil {
		return nil, err
	}
	s.vertices = len(mesh.VertexMapping)
	return &s, nil
}

func runInfo(stdout io.Writer, cfg *config.Config, log *zap.Logger, path string) error {
	in, err := loadMesh(path)
	if err != nil {
		return err
	}

	a := newAtlas(stdout, log)
	defer a.Close()

	if err := a.AddMesh(in); err != nil {
		return err
	}
	if err := a.Generate(cfg.Chart, cfg.Pack, false); err != nil {
		return err
	}

	s, err := collectStats(a)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Mesh:            %s\n", path)
	fmt.Fprintf(stdout, "Input vertices:  %d\n", in.Positions.Rows())
	fmt.Fprintf(stdout, "Input faces:     %d\n", in.Indices.Rows())
	fmt.Fprintf(stdout, "Output vertices: %d\n", s.vertices)
	fmt.Fprintf(stdout, "Charts:          %d\n", s.charts)
	fmt.Fprintf(stdout, "Atlases:         %d\n", s.atlases)
	fmt.Fprintf(stdout, "Size:            %dx%d\n", s.width, s.height)
	fmt.Fprintf(stdout, "Texels per unit: %.2f\n", s.texelsPerUnit)
	for i, u := range s.utilization {
		fmt.Fprintf(stdout, "  Atlas %d utilization: %.1f%%\n", i, u*100)
	}

	return nil
}
