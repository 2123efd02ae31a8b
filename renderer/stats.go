package renderer

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WorkerStats aggregates the work performed by a single tracer over one
// frame.
type WorkerStats struct {
	ID      string
	Tiles   int
	Samples uint64
	Time    time.Duration
}

// FrameStats aggregates the work performed for one frame across all
// tracers.
type FrameStats struct {
	Workers    []WorkerStats
	RenderTime time.Duration
}

// Write renders the statistics as a table.
func (s *FrameStats) Write(w io.Writer) {
	sorted := make([]WorkerStats, len(s.Workers))
	copy(sorted, s.Workers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Worker", "Tiles", "Samples", "Busy time"})

	var totalTiles int
	var totalSamples uint64
	for _, ws := range sorted {
		table.Append([]string{
			ws.ID,
			fmt.Sprintf("%d", ws.Tiles),
			fmt.Sprintf("%d", ws.Samples),
			fmt.Sprintf("%d ms", ws.Time.Nanoseconds()/1e6),
		})
		totalTiles += ws.Tiles
		totalSamples += ws.Samples
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d ms wall", s.RenderTime.Nanoseconds()/1e6),
		fmt.Sprintf("%d", totalTiles),
		fmt.Sprintf("%d", totalSamples),
		"",
	})
	table.Render()
}
