// meshconv converts vertex-soup scene descriptions into welded, indexed
// t3d models.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/meshconv/internal/config"
	"github.com/Faultbox/meshconv/internal/convert"
	"github.com/Faultbox/meshconv/internal/importer"
	"github.com/Faultbox/meshconv/internal/logger"
	"github.com/Faultbox/meshconv/pkg/encoding"
	"github.com/Faultbox/meshconv/pkg/formats"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// stdout receives command output; logs go to stderr.
var stdout io.Writer = os.Stdout

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "convert", "c":
		err = cmdConvert(ctx, args)
	case "inspect", "info":
		err = cmdInspect(args)
	case "layout":
		err = cmdLayout(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(stdout, `meshconv - vertex soup to indexed mesh converter

Usage:
  meshconv <command> [options]

Commands:
  convert [options] <scene.yaml> [output]  Convert a scene to a t3d model
  inspect <model.t3d>                      Show meshes, layouts and bones
  layout [-encoding name] <scene.yaml>     Show the vertex layout per mesh
  config [-save]                           Print (or save) the effective config

Convert options:
  -o t3b|t3t               Output format (default t3b)
  -collisions verify|merge Key collision policy (default verify)
  -workers N               Meshes converted in parallel
  -encoding name           Input charset: %s
  -config path             Config file
  -log path                Also write logs to this file
  -v                       Debug logging

Examples:
  meshconv convert hero.yaml
  meshconv convert -o t3t -v hero.yaml out/hero.t3d
  meshconv inspect hero.t3d
`, strings.Join(encoding.Names(), ", "))
}

// setup loads the config from defaults, file and flags, then starts logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg, nil
}

func cmdConvert(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return fmt.Errorf("usage: meshconv convert [options] <scene.yaml> [output]")
	}

	format, err := formats.ParseFormat(cfg.Convert.Format)
	if err != nil {
		return err
	}
	policy, err := mesh.ParseCollisionPolicy(cfg.Convert.Collisions)
	if err != nil {
		return err
	}

	job := convert.Job{
		Input:    fs.Arg(0),
		Output:   fs.Arg(1),
		Format:   format,
		Encoding: cfg.Convert.InputEncoding,
		Options: convert.Options{
			Collisions: policy,
			Workers:    cfg.Convert.Workers,
		},
	}

	model, err := convert.Run(ctx, job)
	if err != nil {
		logger.Error("conversion failed", zap.String("input", job.Input), zap.Error(err))
		return err
	}

	out := job.Output
	if out == "" {
		out = convert.OutputPath(job.Input)
	}
	fmt.Fprintf(stdout, "%s -> %s (%s, %d meshes, %d vertices)\n",
		job.Input, out, format, len(model.Meshes), model.VertexCount())
	return nil
}

func cmdInspect(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshconv inspect <model.t3d>")
	}

	model, format, err := formats.ParseFile(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Model:   %s\n", model.Name)
	fmt.Fprintf(stdout, "Format:  %s\n", format)
	fmt.Fprintf(stdout, "Meshes:  %d\n", len(model.Meshes))

	for _, m := range model.Meshes {
		fmt.Fprintln(stdout)
		fmt.Fprintf(stdout, "Mesh %q\n", m.Name)
		if m.Node != "" {
			fmt.Fprintf(stdout, "  Node:      %s\n", m.Node)
		}
		fmt.Fprintf(stdout, "  Vertices:  %d (stride %d)\n", len(m.Vertex.Vertices), m.Vertex.Layout.Stride)
		fmt.Fprintf(stdout, "  Corners:   %d\n", m.Stats.Corners)
		fmt.Fprintf(stdout, "  Weighted:  %d vertices\n", weightedVertices(m))
		fmt.Fprintf(stdout, "  Index:     %d-bit (%v)\n", m.IndexWidth(), m.IndexWidth().Format())
		printLayout(m.Vertex.Layout)

		fmt.Fprintln(stdout, "  Partitions:")
		for _, ib := range m.Indices {
			name := ib.MaterialName
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(stdout, "    material %-3d %-16s %d triangles  %s (%v)\n",
				ib.Material, name, ib.PrimitiveCount(), ib.Primitive, ib.Primitive.Topology())
		}

		if len(m.Bones) > 0 {
			fmt.Fprintln(stdout, "  Bones:")
			for i, b := range m.Bones {
				fmt.Fprintf(stdout, "    %3d %-24s %s\n", i, b.Name, b.Node)
			}
		}
	}
	return nil
}

// weightedVertices counts vertices with at least one bone influence.
func weightedVertices(m *mesh.Mesh) int {
	n := 0
	for i := range m.Vertex.Vertices {
		if !m.Vertex.Vertices[i].Blend[0].Empty() {
			n++
		}
	}
	return n
}

func cmdLayout(args []string) error {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	charset := fs.String("encoding", "", "Input charset")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshconv layout [-encoding name] <scene.yaml>")
	}

	scene, err := importer.Load(fs.Arg(0), importer.Options{Encoding: *charset})
	if err != nil {
		return err
	}
	sources, err := scene.Sources()
	if err != nil {
		return err
	}

	for _, src := range sources {
		layout := mesh.NewLayout(src.Counts)
		fmt.Fprintf(stdout, "Mesh %q: %d corners, %d partitions, %d bones\n",
			src.Name, src.Corners(), len(src.Partitions), len(src.Clusters))
		printLayout(layout)
	}
	return nil
}

func printLayout(layout mesh.Layout) {
	fmt.Fprintf(stdout, "  Layout (stride %d):\n", layout.Stride)
	gpu := layout.BufferLayout()
	for i, a := range layout.Attributes {
		fmt.Fprintf(stdout, "    %-3d %-12s layer %d  %-8s x%d  offset %-3d %v\n",
			i, a.Semantic, a.Layer, a.Type, a.Components, a.Offset, gpu.Attributes[i].Format)
	}
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	save := fs.Bool("save", false, "Write the effective config to the user config directory")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	if *save {
		path, err := cfg.Save()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved %s\n", path)
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
