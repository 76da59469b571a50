// Package formats reads and writes converted models as t3d container files,
// either binary (t3b) or text (t3t).
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshconv/pkg/mesh"
)

// Container errors.
var (
	ErrInvalidMagic       = errors.New("invalid t3d magic")
	ErrUnsupportedVersion = errors.New("unsupported t3d version")
	ErrTruncatedData      = errors.New("truncated t3d data")
)

// Version is the container version written by this package.
const Version uint8 = 1

// Magic starts every binary container.
const Magic = "T3DB"

// Format selects the container encoding.
type Format int

const (
	FormatBinary Format = iota // t3b
	FormatText                 // t3t
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "t3b"
	case FormatText:
		return "t3t"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "t3b", "binary":
		return FormatBinary, nil
	case "t3t", "text":
		return FormatText, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", s)
	}
}

// Model is the content of one container file: every converted mesh of a
// scene.
type Model struct {
	Name   string
	Meshes []*mesh.Mesh
}

// VertexCount returns the number of compact vertices over all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for _, ms := range m.Meshes {
		n += len(ms.Vertex.Vertices)
	}
	return n
}

// Encode serializes a model in the given format.
func Encode(m *Model, f Format) ([]byte, error) {
	switch f {
	case FormatBinary:
		return EncodeBinary(m), nil
	case FormatText:
		return EncodeText(m)
	default:
		return nil, fmt.Errorf("unknown output format %v", f)
	}
}

// Decode detects the container format from its leading bytes and parses it.
func Decode(data []byte) (*Model, Format, error) {
	if bytes.HasPrefix(data, []byte(Magic)) {
		m, err := DecodeBinary(data)
		return m, FormatBinary, err
	}
	m, err := DecodeText(data)
	return m, FormatText, err
}

// ParseFile reads a container file of either format.
func ParseFile(path string) (*Model, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	m, f, err := Decode(data)
	if err != nil {
		return nil, f, fmt.Errorf("%s: %w", path, err)
	}
	return m, f, nil
}

// WriteFile encodes the model and replaces path with it. The file is written
// under a temporary name first so a failed write leaves nothing behind.
func WriteFile(path string, m *Model, f Format) error {
	data, err := Encode(m, f)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// decodedStats fills the stats a container can reproduce.
func decodedStats(m *mesh.Mesh) mesh.WeldStats {
	corners := 0
	for _, ib := range m.Indices {
		corners += len(ib.Indices)
	}
	return mesh.WeldStats{Corners: corners, Vertices: len(m.Vertex.Vertices)}
}
