package notebook

import (
	"encoding/json"
	"fmt"
)

// ChartMIMEType is the MIME type of Plotly figure outputs.
const ChartMIMEType = "application/vnd.plotly.v1+json"

// PlaceholderPrefix prefixes the DOM id of each chart placeholder.
const PlaceholderPrefix = "nb2pdf-chart-"

// Chart is one chart payload found in a code-cell output.
// Index is the encounter order across the whole notebook and is the only
// link between the payload and its placeholder.
type Chart struct {
	Index   int
	Cell    int
	Output  int
	Payload json.RawMessage
}

// PlaceholderID returns the DOM id of the placeholder for this chart.
func (c Chart) PlaceholderID() string {
	return PlaceholderID(c.Index)
}

// PlaceholderID returns the DOM id for chart index i.
func PlaceholderID(i int) string {
	return fmt.Sprintf("%s%d", PlaceholderPrefix, i)
}

// IsChart reports whether an output carries a chart payload.
func IsChart(o *Output) bool {
	if o.OutputType != OutputDisplayData && o.OutputType != OutputExecuteResult {
		return false
	}
	return o.HasData(ChartMIMEType)
}

// ExtractCharts walks code-cell outputs in document order and returns every
// chart payload, numbered 0..n-1.
func ExtractCharts(nb *Notebook) []Chart {
	var charts []Chart
	for ci := range nb.Cells {
		cell := &nb.Cells[ci]
		if cell.CellType != CellCode {
			continue
		}
		for oi := range cell.Outputs {
			out := &cell.Outputs[oi]
			if !IsChart(out) {
				continue
			}
			charts = append(charts, Chart{
				Index:   len(charts),
				Cell:    ci,
				Output:  oi,
				Payload: out.Data[ChartMIMEType],
			})
		}
	}
	return charts
}

// ChartIndex maps (cell, output) positions to chart indexes.
type ChartIndex map[[2]int]int

// IndexCharts builds a lookup from output position to chart index.
func IndexCharts(charts []Chart) ChartIndex {
	idx := make(ChartIndex, len(charts))
	for _, c := range charts {
		idx[[2]int{c.Cell, c.Output}] = c.Index
	}
	return idx
}

// Lookup returns the chart index for the output at (cell, output).
func (ci ChartIndex) Lookup(cell, output int) (int, bool) {
	i, ok := ci[[2]int{cell, output}]
	return i, ok
}

// PayloadsJSON encodes the chart payloads as a JSON array ordered by index.
func PayloadsJSON(charts []Chart) ([]byte, error) {
	payloads := make([]json.RawMessage, len(charts))
	for _, c := range charts {
		payloads[c.Index] = c.Payload
	}
	data, err := json.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("encoding chart payloads: %w", err)
	}
	return data, nil
}
