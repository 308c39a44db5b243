// Package rotate implements the nightly archive of the departure log:
// once per day, inside the 01:00-01:30 window, the current region is
// copied to the archive region and reset to a single marker row.
package rotate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gradski-prevoz/tracker/internal/sheet"
)

// MarkerPrefix starts the reset marker written into the cleared current
// region. Its presence with today's date is what makes re-runs inside the
// trigger window safe.
const MarkerPrefix = "Sheet resetovan u "

// markerStyle is the muted look of the reset marker row
var markerStyle = sheet.Style{
	Italic:         true,
	FontSize:       10,
	BackgroundGrey: 0.95,
}

// InWindow reports whether now falls inside the daily trigger window:
// a half hour anchored at 01:00 in the reference timezone.
func InWindow(now time.Time, loc *time.Location) bool {
	t := now.In(loc)
	return t.Hour() == 1 && t.Minute() < 30
}

// IsMarkerRow reports whether a raw row is a reset marker
func IsMarkerRow(row sheet.Row) bool {
	return len(row) > 0 && strings.HasPrefix(row[0], MarkerPrefix)
}

// Outcome reports what a MaybeRotate invocation did
type Outcome struct {
	// Rotated is true when today's rotation has happened, whether in
	// this invocation or an earlier one.
	Rotated bool
	// AlreadyDone is true when a same-day marker was found and the
	// archive was left untouched.
	AlreadyDone bool
	// RowsArchived is how many rows were moved to the archive
	RowsArchived int
}

// Controller drives the daily rotation against a DaySlot store
type Controller struct {
	store sheet.Store
	loc   *time.Location
}

// New creates a rotation controller
func New(store sheet.Store, loc *time.Location) *Controller {
	return &Controller{store: store, loc: loc}
}

// MaybeRotate performs the daily rotation if now is inside the trigger
// window and it has not already happened today. Failures reading the
// current region or preparing the archive abort the rotation; formatting
// and styling failures are logged and do not.
func (c *Controller) MaybeRotate(ctx context.Context, now time.Time) (Outcome, error) {
	if !InWindow(now, c.loc) {
		return Outcome{}, nil
	}

	rows, err := c.store.ReadRegion(ctx, sheet.CurrentRegion)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read current region: %w", err)
	}

	// A marker from today means this window already rotated; touching
	// the archive again would overwrite yesterday's snapshot.
	if len(rows) > 0 && IsMarkerRow(rows[0]) && c.sameDay(rows[0][0], now) {
		log.Println("Rotation already recorded today, skipping")
		return Outcome{Rotated: true, AlreadyDone: true}, nil
	}

	if err := c.store.EnsureRegionExists(ctx, sheet.ArchiveRegion, sheet.RegionRows, sheet.RegionCols); err != nil {
		return Outcome{}, fmt.Errorf("failed to ensure archive region: %w", err)
	}

	if err := c.store.ClearRegion(ctx, sheet.ArchiveRegion); err != nil {
		return Outcome{}, fmt.Errorf("failed to clear archive region: %w", err)
	}

	if len(rows) > 0 {
		if err := c.store.WriteRegion(ctx, sheet.ArchiveRegion, rows, 0); err != nil {
			return Outcome{}, fmt.Errorf("failed to write archive region: %w", err)
		}

		extent := sheet.Extent{StartRow: 0, EndRow: len(rows), StartCol: 0, EndCol: sheet.RegionCols}
		if err := c.store.CopyFormatting(ctx, sheet.CurrentRegion, sheet.ArchiveRegion, extent); err != nil {
			log.Printf("Warning: could not copy formatting to archive: %v", err)
		}
	}

	if err := c.store.EnsureRegionExists(ctx, sheet.CurrentRegion, sheet.RegionRows, sheet.RegionCols); err != nil {
		return Outcome{}, fmt.Errorf("failed to ensure current region: %w", err)
	}

	if err := c.store.ClearRegion(ctx, sheet.CurrentRegion); err != nil {
		return Outcome{}, fmt.Errorf("failed to clear current region: %w", err)
	}

	marker := make(sheet.Row, sheet.RegionCols)
	marker[0] = MarkerPrefix + now.In(c.loc).Format(sheet.TimestampLayout)
	if err := c.store.WriteRegion(ctx, sheet.CurrentRegion, []sheet.Row{marker}, 0); err != nil {
		return Outcome{}, fmt.Errorf("failed to write reset marker: %w", err)
	}

	markerExtent := sheet.Extent{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: sheet.RegionCols}
	if err := c.store.SetCellStyle(ctx, sheet.CurrentRegion, markerExtent, markerStyle); err != nil {
		log.Printf("Warning: could not style reset marker: %v", err)
	}

	log.Printf("Rotation complete: archived %d rows", len(rows))
	return Outcome{Rotated: true, RowsArchived: len(rows)}, nil
}

// sameDay reports whether a marker cell carries today's date
func (c *Controller) sameDay(marker string, now time.Time) bool {
	stamp := strings.TrimPrefix(marker, MarkerPrefix)
	t, err := time.ParseInLocation(sheet.TimestampLayout, stamp, c.loc)
	if err != nil {
		return false
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.In(c.loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
