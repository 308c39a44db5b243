// Package pipeline drives one ingestion run: rotation check, feed poll,
// normalization, log upsert and summary refresh, reporting a single
// plain-text status line for the uptime monitor.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gradski-prevoz/tracker/internal/feed"
	"github.com/gradski-prevoz/tracker/internal/metrics"
	"github.com/gradski-prevoz/tracker/internal/normalize"
	"github.com/gradski-prevoz/tracker/internal/rotate"
	"github.com/gradski-prevoz/tracker/internal/sheet"
	"github.com/gradski-prevoz/tracker/internal/static"
	"github.com/gradski-prevoz/tracker/internal/view"
)

// FeedSource polls the vehicle positions and trip updates feeds
type FeedSource interface {
	Fetch(ctx context.Context) (feed.Batch, error)
}

// StationSource loads the station metadata table
type StationSource interface {
	Stations(ctx context.Context) (map[string]static.Station, error)
}

// RouteSource loads the route display-name table
type RouteSource interface {
	Routes(ctx context.Context) (map[string]string, error)
}

// Pipeline wires the run's collaborators. The external scheduler is
// responsible for not overlapping invocations; runs are not coordinated
// here.
type Pipeline struct {
	Store    sheet.Store
	Feed     FeedSource
	Stations StationSource
	Routes   RouteSource
	Rotator  *rotate.Controller
	Metrics  *metrics.Collector
	Location *time.Location

	// Now overrides the clock in tests; nil means time.Now
	Now func() time.Time
}

// Run executes one pipeline pass and returns the status line. The line
// starts with "SUCCESS" or "ERROR"; the uptime monitor parses the prefix.
func (p *Pipeline) Run(ctx context.Context) string {
	start := p.now()
	runID := uuid.New().String()[:8]
	log.Printf("[%s] Hourly check triggered at %s", runID, start.In(p.Location).Format(sheet.TimestampLayout))

	// Rotation is best-effort within an hourly run: a failure here is
	// retried on the next invocation still inside the trigger window.
	rotated := false
	outcome, err := p.Rotator.MaybeRotate(ctx, start)
	switch {
	case err != nil:
		log.Printf("[%s] Warning: rotation failed, will retry next run: %v", runID, err)
		p.Metrics.RotationFailures.Inc()
	case outcome.Rotated && !outcome.AlreadyDone:
		rotated = true
		p.Metrics.Rotations.Inc()
		log.Printf("[%s] Rotation executed: archived %d rows", runID, outcome.RowsArchived)
	}

	batch, err := p.Feed.Fetch(ctx)
	if err != nil {
		return p.fail(runID, start, fmt.Errorf("feed fetch failed: %w", err))
	}
	p.Metrics.FeedVehicles.Set(float64(len(batch.Vehicles)))

	// An empty feed is not an error; there is just nothing to log
	if len(batch.Vehicles) == 0 {
		log.Printf("[%s] No vehicles found", runID)
		p.finish(start, "success")
		return "SUCCESS - No vehicles to update"
	}

	stations, routes, err := p.loadMetadata(ctx)
	if err != nil {
		return p.fail(runID, start, err)
	}

	records := normalize.Departures(batch.Vehicles, batch.TripUpdates, stations, routes)
	log.Printf("[%s] Normalized %d vehicles for update", runID, len(records))

	ts := start.In(p.Location)
	rows := make([]sheet.LogRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, sheet.LogRow{
			Vehicle:   r.VehicleLabel,
			Line:      r.RouteDisplayName,
			Departure: r.StartTime,
			Direction: r.DestinationName,
			Timestamp: ts.Format(sheet.TimestampLayout),
			Date:      ts.Format(sheet.DateLayout),
		})
	}

	if err := p.Store.EnsureRegionExists(ctx, sheet.CurrentRegion, sheet.RegionRows, sheet.RegionCols); err != nil {
		return p.fail(runID, start, fmt.Errorf("failed to ensure current region: %w", err))
	}

	result, err := p.Store.Upsert(ctx, sheet.CurrentRegion, rows)
	if err != nil {
		return p.fail(runID, start, fmt.Errorf("log update failed: %w", err))
	}
	p.Metrics.RowsNew.Add(float64(result.New))
	p.Metrics.RowsUpdated.Add(float64(result.Updated))

	if lines, err := view.Refresh(ctx, p.Store); err != nil {
		log.Printf("[%s] Warning: summary refresh failed: %v", runID, err)
		p.Metrics.RefreshFailures.Inc()
	} else {
		log.Printf("[%s] Summary refreshed: %d lines", runID, lines)
	}

	p.finish(start, "success")

	status := fmt.Sprintf("SUCCESS - Updated at %s | Vehicles: %d | New: %d | Updated: %d",
		ts.Format(sheet.TimestampLayout), result.TotalProcessed, result.New, result.Updated)
	if rotated {
		status += " | RESET EXECUTED"
	}
	return status
}

// loadMetadata loads the station and route tables concurrently; they are
// independent reads and both are required.
func (p *Pipeline) loadMetadata(ctx context.Context) (map[string]static.Station, map[string]string, error) {
	var (
		wg       sync.WaitGroup
		stations map[string]static.Station
		routes   map[string]string
		stErr    error
		rtErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		stations, stErr = p.Stations.Stations(ctx)
	}()
	go func() {
		defer wg.Done()
		routes, rtErr = p.Routes.Routes(ctx)
	}()
	wg.Wait()

	if stErr != nil {
		return nil, nil, fmt.Errorf("failed to load stations: %w", stErr)
	}
	if rtErr != nil {
		return nil, nil, fmt.Errorf("failed to load routes: %w", rtErr)
	}
	return stations, routes, nil
}

func (p *Pipeline) fail(runID string, start time.Time, err error) string {
	log.Printf("[%s] Hourly check error: %v", runID, err)
	p.finish(start, "error")
	return fmt.Sprintf("ERROR - Failed at %s: %v", start.In(p.Location).Format(sheet.TimestampLayout), err)
}

func (p *Pipeline) finish(start time.Time, status string) {
	p.Metrics.Runs.WithLabelValues(status).Inc()
	p.Metrics.RunDuration.Observe(p.now().Sub(start).Seconds())
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
