package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/protobuf/proto"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// Client polls the GTFS-RT vehicle positions and trip updates feeds
type Client struct {
	positionsURL   string
	tripUpdatesURL string
	client         *http.Client
}

// NewClient creates a feed client for the given GTFS-RT endpoints
func NewClient(positionsURL, tripUpdatesURL string, timeout time.Duration) *Client {
	return &Client{
		positionsURL:   positionsURL,
		tripUpdatesURL: tripUpdatesURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch polls both feeds. Either feed failing fails the whole fetch;
// the pipeline never runs on partial data.
func (c *Client) Fetch(ctx context.Context) (Batch, error) {
	vehicles, err := c.fetchVehicles(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to fetch vehicle positions: %w", err)
	}

	updates, err := c.fetchTripUpdates(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to fetch trip updates: %w", err)
	}

	return Batch{Vehicles: vehicles, TripUpdates: updates}, nil
}

// fetchVehicles fetches and parses the vehicle positions feed
func (c *Client) fetchVehicles(ctx context.Context) ([]RawVehicle, error) {
	msg, err := c.fetchFeed(ctx, c.positionsURL)
	if err != nil {
		return nil, err
	}

	var vehicles []RawVehicle
	for _, entity := range msg.Entity {
		if entity.Vehicle == nil {
			continue
		}
		vehicle := entity.Vehicle

		v := RawVehicle{}
		if vehicle.Vehicle != nil && vehicle.Vehicle.Id != nil {
			v.ID = *vehicle.Vehicle.Id
		} else if entity.Id != nil {
			v.ID = *entity.Id
		}
		if vehicle.Vehicle != nil && vehicle.Vehicle.Label != nil {
			v.Label = *vehicle.Vehicle.Label
		}
		if vehicle.Trip != nil {
			if vehicle.Trip.RouteId != nil {
				v.RouteID = *vehicle.Trip.RouteId
			}
			if vehicle.Trip.StartTime != nil {
				v.StartTime = *vehicle.Trip.StartTime
			}
		}

		if v.ID == "" {
			continue
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, nil
}

// fetchTripUpdates fetches the trip updates feed and reduces each trip to
// its destination: the last stop in the trip's stop time updates.
func (c *Client) fetchTripUpdates(ctx context.Context) ([]TripUpdate, error) {
	msg, err := c.fetchFeed(ctx, c.tripUpdatesURL)
	if err != nil {
		return nil, err
	}

	var updates []TripUpdate
	for _, entity := range msg.Entity {
		if entity.TripUpdate == nil {
			continue
		}
		tripUpdate := entity.TripUpdate

		if tripUpdate.Vehicle == nil || tripUpdate.Vehicle.Id == nil {
			continue
		}

		var destination string
		for _, stu := range tripUpdate.StopTimeUpdate {
			if stu.StopId != nil {
				destination = *stu.StopId
			}
		}
		if destination == "" {
			continue
		}

		updates = append(updates, TripUpdate{
			VehicleID:         *tripUpdate.Vehicle.Id,
			DestinationStopID: destination,
		})
	}

	return updates, nil
}

// fetchFeed fetches a GTFS-RT feed from the given URL
func (c *Client) fetchFeed(ctx context.Context, url string) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	return msg, nil
}
