package sheet

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "departures.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteRegionLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Operations on a missing region fail, like the Sheets backend
	if _, err := store.ReadRegion(ctx, CurrentRegion); err == nil {
		t.Fatal("read of a missing region must fail")
	}

	if err := store.EnsureRegionExists(ctx, CurrentRegion, RegionRows, RegionCols); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	rows, err := store.ReadRegion(ctx, CurrentRegion)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("new region should be empty, got %v", rows)
	}

	written := []Row{{"2034", "7", "10:00", "Centar", "ts", "d"}, {"1107", "24", "10:30", "Dorcol", "ts", "d"}}
	if err := store.WriteRegion(ctx, CurrentRegion, written, 0); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rows, err = store.ReadRegion(ctx, CurrentRegion)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(rows, written) {
		t.Errorf("read back %v, want %v", rows, written)
	}

	if err := store.ClearRegion(ctx, CurrentRegion); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	rows, _ = store.ReadRegion(ctx, CurrentRegion)
	if len(rows) != 0 {
		t.Errorf("region not empty after clear: %v", rows)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.EnsureRegionExists(ctx, CurrentRegion, RegionRows, RegionCols); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}

	res, err := store.Upsert(ctx, CurrentRegion, []LogRow{
		{Vehicle: "A", Departure: "09:00", Direction: "one"},
		{Vehicle: "B", Departure: "09:10", Direction: "two"},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if res.New != 2 || res.Updated != 0 {
		t.Errorf("first upsert = %+v, want 2 new", res)
	}

	res, err = store.Upsert(ctx, CurrentRegion, []LogRow{
		{Vehicle: "A", Departure: "09:00", Direction: "changed"},
		{Vehicle: "C", Departure: "09:20", Direction: "three"},
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if res.New != 1 || res.Updated != 1 || res.TotalProcessed != 2 {
		t.Errorf("second upsert = %+v, want 1 new + 1 updated", res)
	}

	rows, err := store.ReadRegion(ctx, CurrentRegion)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if first := ParseLogRow(rows[0]); first.Direction != "changed" {
		t.Errorf("row 0 = %+v, update must overwrite in place", first)
	}
	if last := ParseLogRow(rows[2]); last.Vehicle != "C" {
		t.Errorf("row 2 = %+v, new rows must append after existing ones", last)
	}
}

func TestSQLiteFormattingOpsAreNoOps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	extent := Extent{StartRow: 0, EndRow: 1, StartCol: 0, EndCol: RegionCols}
	if err := store.CopyFormatting(ctx, CurrentRegion, ArchiveRegion, extent); err != nil {
		t.Errorf("CopyFormatting should be a no-op, got %v", err)
	}
	if err := store.SetCellStyle(ctx, CurrentRegion, extent, Style{Italic: true}); err != nil {
		t.Errorf("SetCellStyle should be a no-op, got %v", err)
	}
}
