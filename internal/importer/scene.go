// Package importer reads a YAML vertex-soup scene description and turns each
// mesh into the per-corner records the converter consumes.
package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshconv/pkg/encoding"
)

// Scene is a parsed scene description.
type Scene struct {
	Name      string     `yaml:"name"`
	Materials []string   `yaml:"materials"`
	Meshes    []MeshDesc `yaml:"meshes"`
}

// MeshDesc describes one mesh as a control point table plus triangles whose
// corners reference control points.
type MeshDesc struct {
	Name          string         `yaml:"name"`
	Node          string         `yaml:"node,omitempty"`
	Bind          []float32      `yaml:"bind,omitempty"` // column-major, identity when empty
	ControlPoints [][]float32    `yaml:"control_points"`
	Triangles     []TriangleDesc `yaml:"triangles"`
	Skin          []ClusterDesc  `yaml:"skin,omitempty"`
}

// TriangleDesc is one triangle of a mesh.
type TriangleDesc struct {
	Material int32        `yaml:"material"`
	Corners  []CornerDesc `yaml:"corners"`
}

// CornerDesc carries the attribute layers of one triangle corner.
type CornerDesc struct {
	CP        int         `yaml:"cp"`
	Colors    [][]float32 `yaml:"colors,omitempty"`
	UVs       [][]float32 `yaml:"uvs,omitempty"`
	Normals   [][]float32 `yaml:"normals,omitempty"`
	Binormals [][]float32 `yaml:"binormals,omitempty"`
	Tangents  [][]float32 `yaml:"tangents,omitempty"`
}

// ClusterDesc is one skin cluster: a bone, its bind-time transforms and the
// control points it influences.
type ClusterDesc struct {
	Bone     string    `yaml:"bone"`
	Node     string    `yaml:"node,omitempty"`
	Bind     []float32 `yaml:"bind"`
	MeshBind []float32 `yaml:"mesh_bind,omitempty"` // defaults to the mesh bind
	Indices  []int     `yaml:"indices"`
	Weights  []float32 `yaml:"weights"`
}

// Options controls how scene files are read.
type Options struct {
	// Encoding names the charset of the input file. Empty means UTF-8.
	Encoding string
}

// Parse decodes a scene description. Unknown fields are rejected.
func Parse(data []byte, opts Options) (*Scene, error) {
	text, err := encoding.ToUTF8(data, opts.Encoding)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(text))
	dec.KnownFields(true)

	var scene Scene
	if err := dec.Decode(&scene); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &scene, nil
}

// Load reads and parses a scene file.
func Load(path string, opts Options) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	scene, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if scene.Name == "" {
		scene.Name = baseName(path)
	}
	return scene, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
