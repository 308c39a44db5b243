package sheet

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// lastColumn is the rightmost column of a region's fixed capacity
const lastColumn = "J"

// GoogleStore is the Google Sheets implementation of Store. Regions are
// sheets (tabs) inside one spreadsheet.
type GoogleStore struct {
	svc           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64 // title -> sheetId
}

// NewGoogleStore authenticates with a service account and opens the
// spreadsheet. The private key is the PEM block from the service account
// credentials, with real newlines.
func NewGoogleStore(ctx context.Context, spreadsheetID, clientEmail, privateKey string) (*GoogleStore, error) {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &GoogleStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// ReadRegion implements Store
func (g *GoogleStore) ReadRegion(ctx context.Context, name string) ([]Row, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, regionRange(name)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read region %s: %w", name, err)
	}

	rows := make([]Row, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make(Row, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ClearRegion implements Store
func (g *GoogleStore) ClearRegion(ctx context.Context, name string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, regionRange(name), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear region %s: %w", name, err)
	}
	return nil
}

// WriteRegion implements Store
func (g *GoogleStore) WriteRegion(ctx context.Context, name string, rows []Row, startRow int) error {
	if len(rows) == 0 {
		return nil
	}

	vr := &sheets.ValueRange{Values: toInterfaceRows(rows)}
	rng := fmt.Sprintf("%s!A%d", name, startRow+1)
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write region %s: %w", name, err)
	}
	return nil
}

// EnsureRegionExists implements Store
func (g *GoogleStore) EnsureRegionExists(ctx context.Context, name string, rowCapacity, colCapacity int) error {
	if _, err := g.sheetID(ctx, name); err == nil {
		return nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: name,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(rowCapacity),
						ColumnCount: int64(colCapacity),
					},
				},
			},
		}},
	}

	resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create region %s: %w", name, err)
	}

	g.mu.Lock()
	g.sheetIDs[name] = resp.Replies[0].AddSheet.Properties.SheetId
	g.mu.Unlock()
	return nil
}

// CopyFormatting implements Store using a PASTE_FORMAT copy-paste
func (g *GoogleStore) CopyFormatting(ctx context.Context, src, dst string, extent Extent) error {
	srcID, err := g.sheetID(ctx, src)
	if err != nil {
		return err
	}
	dstID, err := g.sheetID(ctx, dst)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			CopyPaste: &sheets.CopyPasteRequest{
				Source:      gridRange(srcID, extent),
				Destination: gridRange(dstID, extent),
				PasteType:   "PASTE_FORMAT",
			},
		}},
	}

	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to copy formatting %s -> %s: %w", src, dst, err)
	}
	return nil
}

// SetCellStyle implements Store using a repeatCell request
func (g *GoogleStore) SetCellStyle(ctx context.Context, name string, extent Extent, style Style) error {
	id, err := g.sheetID(ctx, name)
	if err != nil {
		return err
	}

	format := &sheets.CellFormat{
		TextFormat: &sheets.TextFormat{
			Italic:   style.Italic,
			Bold:     style.Bold,
			FontSize: int64(style.FontSize),
		},
	}
	if style.BackgroundGrey > 0 {
		format.BackgroundColor = &sheets.Color{
			Red:   style.BackgroundGrey,
			Green: style.BackgroundGrey,
			Blue:  style.BackgroundGrey,
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange(id, extent),
				Cell:   &sheets.CellData{UserEnteredFormat: format},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		}},
	}

	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to style %s: %w", name, err)
	}
	return nil
}

// Upsert implements Store. In-place updates go out as a single values
// batch, appends as a single append call; any failed step fails the
// whole upsert.
func (g *GoogleStore) Upsert(ctx context.Context, name string, rows []LogRow) (UpsertResult, error) {
	existing, err := g.ReadRegion(ctx, name)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert read failed: %w", err)
	}

	index := make(map[string]int, len(existing))
	for i, row := range existing {
		index[ParseLogRow(row).Key()] = i
	}

	var result UpsertResult
	var updates []*sheets.ValueRange
	var appends [][]interface{}
	pending := make(map[string]int) // key -> index into appends

	for _, row := range rows {
		values := toInterfaceRow(row.Values())
		if pos, ok := index[row.Key()]; ok {
			updates = append(updates, &sheets.ValueRange{
				Range:  fmt.Sprintf("%s!A%d", name, pos+1),
				Values: [][]interface{}{values},
			})
			result.Updated++
		} else if j, ok := pending[row.Key()]; ok {
			appends[j] = values
			result.Updated++
		} else {
			pending[row.Key()] = len(appends)
			appends = append(appends, values)
			result.New++
		}
		result.TotalProcessed++
	}

	if len(updates) > 0 {
		req := &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             updates,
		}
		if _, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return UpsertResult{}, fmt.Errorf("upsert update failed: %w", err)
		}
	}

	if len(appends) > 0 {
		vr := &sheets.ValueRange{Values: appends}
		_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, fmt.Sprintf("%s!A1", name), vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return UpsertResult{}, fmt.Errorf("upsert append failed: %w", err)
		}
	}

	return result, nil
}

// sheetID resolves a sheet title to its numeric id, caching lookups
func (g *GoogleStore) sheetID(ctx context.Context, name string) (int64, error) {
	g.mu.Lock()
	if id, ok := g.sheetIDs[name]; ok {
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	spreadsheet, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range spreadsheet.Sheets {
		g.sheetIDs[s.Properties.Title] = s.Properties.SheetId
	}
	if id, ok := g.sheetIDs[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("sheet %q not found", name)
}

func regionRange(name string) string {
	return fmt.Sprintf("%s!A:%s", name, lastColumn)
}

func gridRange(sheetID int64, extent Extent) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(extent.StartRow),
		EndRowIndex:      int64(extent.EndRow),
		StartColumnIndex: int64(extent.StartCol),
		EndColumnIndex:   int64(extent.EndCol),
	}
}

func toInterfaceRow(row Row) []interface{} {
	out := make([]interface{}, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}

func toInterfaceRows(rows []Row) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = toInterfaceRow(row)
	}
	return out
}
