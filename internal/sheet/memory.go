package sheet

import (
	"context"
	"fmt"
	"sync"
)

// StyleCall records a SetCellStyle invocation on the in-memory store
type StyleCall struct {
	Region string
	Extent Extent
	Style  Style
}

// CopyCall records a CopyFormatting invocation on the in-memory store
type CopyCall struct {
	Src, Dst string
	Extent   Extent
}

type memRegion struct {
	rows        []Row
	rowCapacity int
	colCapacity int
}

// MemoryStore is a fully in-memory Store used by tests and kept close to
// the real backends' observable behavior: rows keep their positions,
// reads of a missing region fail, and formatting calls are recorded.
type MemoryStore struct {
	mu      sync.Mutex
	regions map[string]*memRegion

	// Styled and Copied record cosmetic operations for assertions
	Styled []StyleCall
	Copied []CopyCall

	// Fail, when it maps an operation name ("read", "clear", "write",
	// "ensure", "copy", "style", "upsert") to an error, makes that
	// operation return the error.
	Fail map[string]error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		regions: make(map[string]*memRegion),
		Fail:    make(map[string]error),
	}
}

// Seed creates a region with the default capacity holding the given rows
func (m *MemoryStore) Seed(name string, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions[name] = &memRegion{
		rows:        append([]Row(nil), rows...),
		rowCapacity: RegionRows,
		colCapacity: RegionCols,
	}
}

// Rows returns a copy of the region's rows, or nil if it does not exist
func (m *MemoryStore) Rows(name string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	region, ok := m.regions[name]
	if !ok {
		return nil
	}
	return append([]Row(nil), region.rows...)
}

// Has reports whether the region exists
func (m *MemoryStore) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.regions[name]
	return ok
}

// ReadRegion implements Store
func (m *MemoryStore) ReadRegion(ctx context.Context, name string) ([]Row, error) {
	if err := m.Fail["read"]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	region, ok := m.regions[name]
	if !ok {
		return nil, fmt.Errorf("region %q does not exist", name)
	}
	return append([]Row(nil), region.rows...), nil
}

// ClearRegion implements Store
func (m *MemoryStore) ClearRegion(ctx context.Context, name string) error {
	if err := m.Fail["clear"]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	region, ok := m.regions[name]
	if !ok {
		return fmt.Errorf("region %q does not exist", name)
	}
	region.rows = nil
	return nil
}

// WriteRegion implements Store
func (m *MemoryStore) WriteRegion(ctx context.Context, name string, rows []Row, startRow int) error {
	if err := m.Fail["write"]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	region, ok := m.regions[name]
	if !ok {
		return fmt.Errorf("region %q does not exist", name)
	}
	for i, row := range rows {
		pos := startRow + i
		for len(region.rows) <= pos {
			region.rows = append(region.rows, Row{})
		}
		region.rows[pos] = append(Row(nil), row...)
	}
	return nil
}

// EnsureRegionExists implements Store
func (m *MemoryStore) EnsureRegionExists(ctx context.Context, name string, rowCapacity, colCapacity int) error {
	if err := m.Fail["ensure"]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[name]; !ok {
		m.regions[name] = &memRegion{rowCapacity: rowCapacity, colCapacity: colCapacity}
	}
	return nil
}

// CopyFormatting implements Store; the fake only records the call
func (m *MemoryStore) CopyFormatting(ctx context.Context, src, dst string, extent Extent) error {
	if err := m.Fail["copy"]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Copied = append(m.Copied, CopyCall{Src: src, Dst: dst, Extent: extent})
	return nil
}

// SetCellStyle implements Store; the fake only records the call
func (m *MemoryStore) SetCellStyle(ctx context.Context, name string, extent Extent, style Style) error {
	if err := m.Fail["style"]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Styled = append(m.Styled, StyleCall{Region: name, Extent: extent, Style: style})
	return nil
}

// Upsert implements Store
func (m *MemoryStore) Upsert(ctx context.Context, name string, rows []LogRow) (UpsertResult, error) {
	if err := m.Fail["upsert"]; err != nil {
		return UpsertResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	region, ok := m.regions[name]
	if !ok {
		return UpsertResult{}, fmt.Errorf("region %q does not exist", name)
	}

	index := make(map[string]int, len(region.rows))
	for i, row := range region.rows {
		index[ParseLogRow(row).Key()] = i
	}

	var result UpsertResult
	for _, row := range rows {
		if pos, ok := index[row.Key()]; ok {
			region.rows[pos] = row.Values()
			result.Updated++
		} else {
			index[row.Key()] = len(region.rows)
			region.rows = append(region.rows, row.Values())
			result.New++
		}
		result.TotalProcessed++
	}

	return result, nil
}
