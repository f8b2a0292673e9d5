package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/posetouch/internal/model"
)

func TestParseCellID(t *testing.T) {
	tests := []struct {
		in      string
		want    CellID
		wantErr bool
	}{
		{in: "0-0", want: CellID{0, 0}},
		{in: "2-1", want: CellID{2, 1}},
		{in: " 1-2 ", want: CellID{1, 2}},
		{in: "12", wantErr: true},
		{in: "a-1", wantErr: true},
		{in: "1-", wantErr: true},
		{in: "-1-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCellID(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCell)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) CellID {
	t.Helper()
	id, err := ParseCellID(s)
	require.NoError(t, err)
	return id
}

func TestToggle(t *testing.T) {
	s, err := NewGrid(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	on, err := s.Toggle(CellID{1, 1})
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, s.IsEnabled(CellID{1, 1}))

	on, err = s.Toggle(CellID{1, 1})
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, 0, s.Len())

	_, err = s.Toggle(CellID{3, 0})
	assert.ErrorIs(t, err, ErrOutOfGrid)
}

func TestEnabledOrderAndClone(t *testing.T) {
	s, err := NewGrid(3, 3)
	require.NoError(t, err)
	require.NoError(t, s.SetEnabled(CellID{2, 0}, true))
	require.NoError(t, s.SetEnabled(CellID{0, 2}, true))
	require.NoError(t, s.SetEnabled(CellID{0, 1}, true))

	assert.Equal(t, []string{"0-1", "0-2", "2-0"}, s.EnabledStrings())

	c := s.Clone()
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 3, c.Len())

	s.EnableAll()
	assert.Equal(t, 9, s.Len())
}

func TestUnconstrained(t *testing.T) {
	s := Unconstrained()
	assert.False(t, s.Constrained())

	_, err := s.Toggle(CellID{0, 0})
	assert.ErrorIs(t, err, ErrNoGrid)

	_, ok := s.CellAt(model.NewPoint(1, 1), model.Bounds{Width: 10, Height: 10})
	assert.False(t, ok)
}

func TestNewGridRejectsBadDimensions(t *testing.T) {
	_, err := NewGrid(0, 3)
	assert.Error(t, err)
	_, err = NewGrid(3, -1)
	assert.Error(t, err)
}

func TestCellRectAndCellAt(t *testing.T) {
	s, err := NewGrid(3, 3)
	require.NoError(t, err)
	b := model.Bounds{Width: 600, Height: 300}

	r, err := s.CellRect(CellID{Row: 1, Col: 2}, b)
	require.NoError(t, err)
	assert.Equal(t, model.Rect{Min: model.NewPoint(400, 100), Max: model.NewPoint(600, 200)}, r)

	tests := []struct {
		name string
		p    model.Point
		want CellID
	}{
		{"origin", model.NewPoint(0, 0), CellID{0, 0}},
		{"center", model.NewPoint(300, 150), CellID{1, 1}},
		{"far corner", model.NewPoint(600, 300), CellID{2, 2}},
		{"inside 1-2", model.NewPoint(450, 150), CellID{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.CellAt(tt.p, b)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := s.CellAt(model.NewPoint(-1, 0), b)
	assert.False(t, ok)
}
