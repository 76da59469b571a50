package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_RoundTrip(t *testing.T) {
	model := sampleModel(t)

	data, err := EncodeText(model)
	require.NoError(t, err)

	got, err := DecodeText(data)
	require.NoError(t, err)
	assertSameModel(t, model, got)
	assert.Nil(t, got.Meshes[1].Bones)

	again, err := EncodeText(got)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestText_Shape(t *testing.T) {
	data, err := EncodeText(sampleModel(t))
	require.NoError(t, err)
	doc := string(data)

	assert.True(t, strings.HasPrefix(doc, "format: t3t\nversion: 1\n"), doc)
	assert.Contains(t, doc, "semantic: blend_index")
	assert.Contains(t, doc, "primitive: triangle_list")
	assert.Contains(t, doc, "material_name: cloth")
	assert.Contains(t, doc, "values: |")
}

func TestText_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not yaml", "\x00\x01", ErrInvalidMagic},
		{"wrong format", "format: obj\nversion: 1\n", ErrInvalidMagic},
		{"future version", "format: t3t\nversion: 9\n", ErrUnsupportedVersion},
		{
			"count mismatch",
			"format: t3t\nversion: 1\nmeshes:\n" +
				"  - name: m\n" +
				"    vertex_buffer:\n" +
				"      stride: 32\n" +
				"      count: 2\n" +
				"      attributes:\n" +
				"        - {semantic: position, type: float32, size: 3, layer: 0, offset: 0}\n" +
				"        - {semantic: blend_index, type: int8, size: 4, layer: 0, offset: 12}\n" +
				"        - {semantic: blend_weight, type: float32, size: 4, layer: 0, offset: 16}\n" +
				"      values: |\n" +
				"        1 2 3 -1 -1 -1 -1 0 0 0 0\n",
			ErrTruncatedData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeText([]byte(tt.doc))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
