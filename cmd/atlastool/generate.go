package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/config"
	"github.com/Faultbox/uvatlas/internal/export"
	"github.com/Faultbox/uvatlas/pkg/atlas"
	"github.com/Faultbox/uvatlas/pkg/formats"
	"github.com/Faultbox/uvatlas/pkg/packer"
)

func newGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <mesh.obj>",
		Short: "Generate an atlas and write the re-indexed mesh",
		Example: `  atlastool generate bunny.obj
  atlastool generate bunny.obj -o out --image png --padding 2
  atlastool generate bunny.obj --resolution 1024 -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runGenerate(cmd.OutOrStdout(), a.cfg, a.log, args[0])
			return err
		},
	}
}

// generateResult lists the files written by runGenerate.
type generateResult struct {
	Mesh   string
	Images []string
}

// loadMesh reads an OBJ file into atlas buffers.
func loadMesh(path string) (atlas.MeshInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return atlas.MeshInput{}, err
	}
	obj, err := formats.ParseOBJ(data)
	if err != nil {
		return atlas.MeshInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return obj.MeshInput(), nil
}

// newAtlas builds an atlas backed by the packer engine.
func newAtlas(stdout io.Writer, log *zap.Logger) *atlas.Atlas {
	eng := packer.New(packer.WithLogger(log.Named("packer")))
	return atlas.New(eng, atlas.WithLogger(log.Named("atlas")), atlas.WithReportWriter(stdout))
}

func runGenerate(stdout io.Writer, cfg *config.Config, log *zap.Logger, path string) (*generateResult, error) {
	in, err := loadMesh(path)
	if err != nil {
		return nil, err
	}

	a := newAtlas(stdout, log)
	defer a.Close()

	if err := a.AddMesh(in); err != nil {
		return nil, err
	}
	if err := a.Generate(cfg.Chart, cfg.Pack, cfg.Output.Verbose); err != nil {
		return nil, err
	}

	mesh, err := a.GetMesh(0)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	res := &generateResult{Mesh: filepath.Join(cfg.Output.Dir, base+"_atlas.obj")}
	if err := writeMesh(res.Mesh, in, mesh); err != nil {
		return nil, err
	}
	log.Info("wrote mesh", zap.String("path", res.Mesh), zap.Int("vertices", len(mesh.VertexMapping)))

	if cfg.Output.ImageFormat != config.ImageFormatNone {
		w, err := export.NewImageWriter(cfg.Output.Dir, base, cfg.Output.ImageFormat)
		if err != nil {
			return nil, err
		}

		count, err := a.AtlasCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			img, err := a.ChartImage(i)
			if err != nil {
				return nil, err
			}
			name, err := w.Write(i, img)
			if err != nil {
				return nil, err
			}
			res.Images = append(res.Images, name)
			log.Info("wrote chart image", zap.String("path", name))
		}
	}

	return res, nil
}

// writeMesh writes the output mesh: input attributes gathered through the
// vertex mapping plus the generated UVs.
func writeMesh(path string, in atlas.MeshInput, mesh *atlas.MeshResult) error {
	positions := gather(in.Positions, mesh.VertexMapping, 3)
	indices := atlas.Rows3(mesh.Triangles)
	uvs := atlas.Rows2(mesh.UVs)

	var normals *atlas.Buffer[float32]
	if in.Normals != nil {
		n := gather(*in.Normals, mesh.VertexMapping, 3)
		normals = &n
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := formats.WriteOBJ(f, positions, &indices, &uvs, normals); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func gather(src atlas.Buffer[float32], mapping []uint32, width int) atlas.Buffer[float32] {
	data := make([]float32, 0, len(mapping)*width)
	for _, xref := range mapping {
		o := int(xref) * width
		data = append(data, src.Data[o:o+width]...)
	}
	return atlas.NewBuffer(data, len(mapping), width)
}
