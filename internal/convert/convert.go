// Package convert runs whole-scene conversions: every mesh of a scene is
// imported and welded on a bounded worker pool, then written as one model.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/meshconv/internal/importer"
	"github.com/Faultbox/meshconv/internal/logger"
	"github.com/Faultbox/meshconv/pkg/formats"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// Options tunes a scene conversion.
type Options struct {
	Collisions mesh.CollisionPolicy
	Workers    int // defaults to runtime.NumCPU()
}

// Result is the outcome of one mesh.
type Result struct {
	Name     string
	Mesh     *mesh.Mesh
	Err      error
	Duration time.Duration
}

// Meshes converts every mesh of the scene. Results come back in scene order.
// Each mesh gets its own dedup table, so meshes never share state.
func Meshes(ctx context.Context, scene *importer.Scene, opts Options) []Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(scene.Meshes) {
		workers = len(scene.Meshes)
	}

	results := make([]Result, len(scene.Meshes))

	// Worker pool
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Name: meshName(scene, idx), Err: err}
					continue
				}
				results[idx] = convertMesh(scene, idx, opts.Collisions)
			}
		}()
	}

	for i := range scene.Meshes {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// Scene converts every mesh and assembles the model. Any failing mesh fails
// the scene; all mesh errors are reported together.
func Scene(ctx context.Context, scene *importer.Scene, opts Options) (*formats.Model, error) {
	if len(scene.Meshes) == 0 {
		return nil, importer.ErrNoMeshes
	}

	results := Meshes(ctx, scene, opts)

	var errs error
	model := &formats.Model{Name: scene.Name, Meshes: make([]*mesh.Mesh, 0, len(results))}
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, r.Err)
			continue
		}
		model.Meshes = append(model.Meshes, r.Mesh)
	}
	if errs != nil {
		return nil, errs
	}
	return model, nil
}

func convertMesh(scene *importer.Scene, idx int, policy mesh.CollisionPolicy) Result {
	start := time.Now()
	name := meshName(scene, idx)
	log := logger.ForMesh(name)

	src, err := scene.Build(idx)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		return Result{Name: name, Err: err}
	}

	for i, c := range src.Clusters {
		log.Debug("skin cluster",
			zap.Int("bone", i),
			zap.String("name", c.Name),
			zap.String("node", c.Node),
		)
	}

	m, err := mesh.Convert(src, mesh.Options{Collisions: policy})
	if err != nil {
		log.Error("conversion failed", zap.Error(err))
		return Result{Name: name, Err: err}
	}

	elapsed := time.Since(start)
	log.Info("mesh converted",
		zap.Int("corners", m.Stats.Corners),
		zap.Int("vertices", m.Stats.Vertices),
		zap.Int("partitions", len(m.Indices)),
		zap.Int("bones", len(m.Bones)),
		zap.Uint8("index_width", uint8(m.IndexWidth())),
		zap.Int("stride", m.Vertex.Layout.Stride),
		zap.Duration("took", elapsed),
	)
	if m.Stats.Collisions > 0 {
		log.Warn("canonical key collisions",
			zap.Int("count", m.Stats.Collisions),
			zap.Stringer("policy", policy),
		)
	}

	return Result{Name: name, Mesh: m, Duration: elapsed}
}

func meshName(scene *importer.Scene, idx int) string {
	if n := scene.Meshes[idx].Name; n != "" {
		return n
	}
	return fmt.Sprintf("mesh%d", idx)
}

// Job describes one input file to convert.
type Job struct {
	Input    string
	Output   string // derived from Input when empty
	Format   formats.Format
	Encoding string
	Options  Options
}

// OutputPath returns the output path for input: same base name with the
// .t3d extension.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".t3d"
}

// Run loads, converts and writes one scene file. Nothing is written when any
// mesh fails.
func Run(ctx context.Context, job Job) (*formats.Model, error) {
	scene, err := importer.Load(job.Input, importer.Options{Encoding: job.Encoding})
	if err != nil {
		return nil, err
	}

	model, err := Scene(ctx, scene, job.Options)
	if err != nil {
		return nil, err
	}

	out := job.Output
	if out == "" {
		out = OutputPath(job.Input)
	}
	if err := formats.WriteFile(out, model, job.Format); err != nil {
		return nil, fmt.Errorf("write %s: %w", out, err)
	}

	logger.Info("model written",
		zap.String("path", out),
		zap.Stringer("format", job.Format),
		zap.Int("meshes", len(model.Meshes)),
		zap.Int("vertices", model.VertexCount()),
	)
	return model, nil
}
