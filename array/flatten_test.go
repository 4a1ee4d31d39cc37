package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		shape []int
		data  any
	}{
		{"vector", []float64{1, 2, 3}, []int{3}, []float64{1, 2, 3}},
		{"matrix", [][]int16{{1, 2}, {3, 4}, {5, 6}}, []int{3, 2}, []int16{1, 2, 3, 4, 5, 6}},
		{
			"cube",
			[][][]uint8{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}},
			[]int{2, 2, 2},
			[]uint8{1, 2, 3, 4, 5, 6, 7, 8},
		},
		{"scalar", float32(2.5), []int{}, []float32{2.5}},
		{"empty", [][]int32{}, []int{0, 0}, []int32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Flatten(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, a.Shape)
			assert.Equal(t, tt.data, a.Data)
		})
	}
}

func TestFlattenRejects(t *testing.T) {
	_, err := Flatten([][]int16{{1, 2}, {3}})
	assert.ErrorContains(t, err, "ragged")

	_, err = Flatten([]bool{true})
	assert.Error(t, err)

	_, err = Flatten(struct{}{})
	assert.Error(t, err)
}
