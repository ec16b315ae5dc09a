package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestCSVExporterRender(t *testing.T) {
	data := NewDataset("Name", "Points")
	data.Append("Alice", "12")
	data.Append("Bob, Jr.", "-3")

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	require.Equal(t, "Name,Points\nAlice,12\n\"Bob, Jr.\",-3\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	data := Dataset{Headers: []string{"Name", "Points"}, Rows: [][]string{{"Alice"}}}
	_, err := NewCSVExporter().Render(data)
	require.ErrorContains(t, err, "row 0 has 1 values")

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestDatasetAppendPadsAndCuts(t *testing.T) {
	data := NewDataset("a", "b")
	data.Append("1")
	data.Append("1", "2", "3")
	require.Equal(t, [][]string{{"1", ""}, {"1", "2"}}, data.Rows)
}

func TestPDFExporterRender(t *testing.T) {
	data := NewDataset("Rank", "Name", "Points")
	data.Widths = []float64{1, 4, 2}
	for i := 0; i < 80; i++ {
		data.Append("1", strings.Repeat("Pledgé ", 20), "10")
	}

	out, err := NewPDFExporter().Render(data, "Current Pledge Rankings")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(Dataset{Headers: []string{"a", "b"}, Widths: []float64{1, 3}})
	require.InDelta(t, pdfBodyWidth/4, widths[0], 0.001)
	require.InDelta(t, pdfBodyWidth*3/4, widths[1], 0.001)

	even := columnWidths(Dataset{Headers: []string{"a", "b"}})
	require.InDelta(t, pdfBodyWidth/2, even[0], 0.001)
}

func TestChartRendererBars(t *testing.T) {
	out, err := NewChartRenderer().Bars("Pledge Points", []Bar{{Label: "Alice", Value: 12}, {Label: "Bob", Value: -4}})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, pngMagic))

	_, err = NewChartRenderer().Bars("empty", nil)
	require.Error(t, err)
}

func TestChartRendererLines(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	lines := []Line{
		{Name: "Alice", Times: []time.Time{base, base.Add(24 * time.Hour)}, Values: []float64{5, 9}},
		{Name: "Bob", Times: []time.Time{base}, Values: []float64{3}},
		{Name: "ragged", Times: []time.Time{base}, Values: nil},
	}
	out, err := NewChartRenderer().Lines("Points History", lines)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, pngMagic))

	_, err = NewChartRenderer().Lines("empty", []Line{{Name: "none"}})
	require.Error(t, err)
}

func TestPaddedRangeWidensFlatAxis(t *testing.T) {
	r := paddedRange(4, 4)
	require.Equal(t, 3.0, r.Min)
	require.Equal(t, 5.0, r.Max)
	require.Equal(t, 8, barWidth(1000, 200))
	require.Equal(t, 60, barWidth(1000, 1))
}
