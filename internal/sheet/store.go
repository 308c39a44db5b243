// Package sheet models the spreadsheet-backed daily log as a narrow
// key-range store. All mutation of the persistent log goes through the
// Store interface, so rotation and pipeline logic can run against the
// Google Sheets backend, the local SQLite backend, or the in-memory fake.
package sheet

import "context"

// Region names inside the spreadsheet
const (
	// CurrentRegion holds today's departure log
	CurrentRegion = "Polasci"
	// ArchiveRegion holds yesterday's frozen snapshot
	ArchiveRegion = "Juce"
	// SummaryRegion holds the derived per-line overview
	SummaryRegion = "Pregled"
)

// Fixed grid capacity for regions created on first use (columns A:J)
const (
	RegionRows = 10000
	RegionCols = 10
)

// TimestampLayout is how run timestamps appear in the log and in status
// lines, in the reference timezone.
const TimestampLayout = "02.01.2006. 15:04:05"

// DateLayout is the date column format
const DateLayout = "02.01.2006"

// Row is one raw spreadsheet row. Cells beyond the written values read
// back as absent, so rows may be shorter than RegionCols.
type Row []string

// LogRow is one persisted departure entry. Identity is Vehicle+Departure;
// the remaining fields are overwritten on upsert.
type LogRow struct {
	Vehicle   string // vozilo
	Line      string // linija
	Departure string // polazak
	Direction string // smer
	Timestamp string // last update
	Date      string // datum
}

// Values renders the row for storage
func (r LogRow) Values() Row {
	return Row{r.Vehicle, r.Line, r.Departure, r.Direction, r.Timestamp, r.Date}
}

// Key is the upsert identity of the row
func (r LogRow) Key() string {
	return r.Vehicle + "\x00" + r.Departure
}

// ParseLogRow reads a raw row back into a LogRow, tolerating short rows
func ParseLogRow(row Row) LogRow {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return LogRow{
		Vehicle:   cell(0),
		Line:      cell(1),
		Departure: cell(2),
		Direction: cell(3),
		Timestamp: cell(4),
		Date:      cell(5),
	}
}

// Extent is a half-open, zero-based cell range within a region
type Extent struct {
	StartRow, EndRow int
	StartCol, EndCol int
}

// Style describes cell formatting. Zero values leave the corresponding
// attribute untouched.
type Style struct {
	Italic         bool
	Bold           bool
	FontSize       int
	BackgroundGrey float64 // 0..1 grey level; 0 means no background
}

// UpsertResult reports how a batch of records merged into the log
type UpsertResult struct {
	TotalProcessed int
	New            int
	Updated        int
}

// Store is the persistent DaySlot store. Implementations must make Upsert
// atomic from the caller's point of view: a partial write is an error of
// the whole call, never a partial success.
type Store interface {
	// ReadRegion returns all rows currently in the region, in order
	ReadRegion(ctx context.Context, name string) ([]Row, error)

	// ClearRegion removes all values from the region
	ClearRegion(ctx context.Context, name string) error

	// WriteRegion writes rows starting at the given zero-based row index
	WriteRegion(ctx context.Context, name string, rows []Row, startRow int) error

	// EnsureRegionExists creates the region with the given capacity if it
	// does not exist yet. Existing regions are left untouched.
	EnsureRegionExists(ctx context.Context, name string, rowCapacity, colCapacity int) error

	// CopyFormatting copies visual formatting for the extent from src to
	// dst, where the medium supports it.
	CopyFormatting(ctx context.Context, src, dst string, extent Extent) error

	// SetCellStyle applies a style to the extent, where the medium
	// supports it.
	SetCellStyle(ctx context.Context, name string, extent Extent, style Style) error

	// Upsert merges rows into the region by identity key: existing rows
	// are overwritten in place, new rows are appended after the last row.
	Upsert(ctx context.Context, name string, rows []LogRow) (UpsertResult, error)
}
