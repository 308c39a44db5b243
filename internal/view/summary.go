// Package view regenerates the derived per-line overview from the daily
// log. The refresh is best-effort: the pipeline logs a failure here but
// still reports overall success.
package view

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/gradski-prevoz/tracker/internal/rotate"
	"github.com/gradski-prevoz/tracker/internal/sheet"
)

var headerRow = sheet.Row{"Linija", "Polasci", "Poslednji polazak", "Smer", "Vreme"}

// lineSummary aggregates one line's departures for the overview
type lineSummary struct {
	line          string
	departures    int
	lastDeparture string
	lastDirection string
	lastSeen      string
}

// Refresh rebuilds the summary region from the current log and returns
// the number of lines written.
func Refresh(ctx context.Context, store sheet.Store) (int, error) {
	rows, err := store.ReadRegion(ctx, sheet.CurrentRegion)
	if err != nil {
		return 0, fmt.Errorf("failed to read current region: %w", err)
	}

	byLine := make(map[string]*lineSummary)
	for _, raw := range rows {
		if rotate.IsMarkerRow(raw) {
			continue
		}
		row := sheet.ParseLogRow(raw)
		if row.Vehicle == "" && row.Line == "" {
			continue
		}

		s, ok := byLine[row.Line]
		if !ok {
			s = &lineSummary{line: row.Line}
			byLine[row.Line] = s
		}
		s.departures++
		// Row order is append order, so the last row wins as most recent
		s.lastDeparture = row.Departure
		s.lastDirection = row.Direction
		s.lastSeen = row.Timestamp
	}

	lines := make([]*lineSummary, 0, len(byLine))
	for _, s := range byLine {
		lines = append(lines, s)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lessLine(lines[i].line, lines[j].line)
	})

	out := make([]sheet.Row, 0, len(lines)+1)
	out = append(out, headerRow)
	for _, s := range lines {
		out = append(out, sheet.Row{
			s.line,
			strconv.Itoa(s.departures),
			s.lastDeparture,
			s.lastDirection,
			s.lastSeen,
		})
	}

	if err := store.EnsureRegionExists(ctx, sheet.SummaryRegion, sheet.RegionRows, sheet.RegionCols); err != nil {
		return 0, fmt.Errorf("failed to ensure summary region: %w", err)
	}
	if err := store.ClearRegion(ctx, sheet.SummaryRegion); err != nil {
		return 0, fmt.Errorf("failed to clear summary region: %w", err)
	}
	if err := store.WriteRegion(ctx, sheet.SummaryRegion, out, 0); err != nil {
		return 0, fmt.Errorf("failed to write summary region: %w", err)
	}

	headerExtent := sheet.Extent{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: len(headerRow)}
	if err := store.SetCellStyle(ctx, sheet.SummaryRegion, headerExtent, sheet.Style{Bold: true, FontSize: 10}); err != nil {
		log.Printf("Warning: could not style summary header: %v", err)
	}

	return len(lines), nil
}

// lessLine orders line names numerically where possible ("7" before
// "20"), falling back to lexical order for named lines.
func lessLine(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
