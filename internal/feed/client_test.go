package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

func strPtr(s string) *string { return &s }

// feedHeader satisfies the format's required header field
func feedHeader() *gtfs.FeedHeader {
	return &gtfs.FeedHeader{GtfsRealtimeVersion: strPtr("2.0")}
}

func serveFeed(t *testing.T, msg *gtfs.FeedMessage) *httptest.Server {
	t.Helper()
	body, err := proto.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal feed: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func positionsMessage() *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfs.FeedEntity{
			{
				Id: strPtr("e1"),
				Vehicle: &gtfs.VehiclePosition{
					Vehicle: &gtfs.VehicleDescriptor{Id: strPtr("v1"), Label: strPtr("2034")},
					Trip:    &gtfs.TripDescriptor{RouteId: strPtr("7"), StartTime: strPtr("10:00")},
				},
			},
			{
				// No vehicle descriptor: the entity id serves as the key
				Id: strPtr("e2"),
				Vehicle: &gtfs.VehiclePosition{
					Trip: &gtfs.TripDescriptor{RouteId: strPtr("24"), StartTime: strPtr("10:15")},
				},
			},
			{
				// Non-vehicle entity, skipped
				Id: strPtr("e3"),
			},
		},
	}
}

func tripUpdatesMessage() *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfs.FeedEntity{
			{
				Id: strPtr("t1"),
				TripUpdate: &gtfs.TripUpdate{
					// Trip is required by the proto2 schema for marshaling
					Trip:    &gtfs.TripDescriptor{},
					Vehicle: &gtfs.VehicleDescriptor{Id: strPtr("v1")},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						{StopId: strPtr("20001")},
						{StopId: strPtr("21234")},
					},
				},
			},
			{
				// No vehicle id, skipped
				Id: strPtr("t2"),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						{StopId: strPtr("20002")},
					},
				},
			},
			{
				// No stops, skipped
				Id: strPtr("t3"),
				TripUpdate: &gtfs.TripUpdate{
					Trip:    &gtfs.TripDescriptor{},
					Vehicle: &gtfs.VehicleDescriptor{Id: strPtr("v2")},
				},
			},
		},
	}
}

func TestFetch(t *testing.T) {
	positions := serveFeed(t, positionsMessage())
	updates := serveFeed(t, tripUpdatesMessage())

	client := NewClient(positions.URL, updates.URL, 5*time.Second)
	batch, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	wantVehicles := []RawVehicle{
		{ID: "v1", Label: "2034", RouteID: "7", StartTime: "10:00"},
		{ID: "e2", RouteID: "24", StartTime: "10:15"},
	}
	if !reflect.DeepEqual(batch.Vehicles, wantVehicles) {
		t.Errorf("vehicles = %+v, want %+v", batch.Vehicles, wantVehicles)
	}

	// The destination is the last stop of the trip
	wantUpdates := []TripUpdate{
		{VehicleID: "v1", DestinationStopID: "21234"},
	}
	if !reflect.DeepEqual(batch.TripUpdates, wantUpdates) {
		t.Errorf("trip updates = %+v, want %+v", batch.TripUpdates, wantUpdates)
	}
}

func TestFetchEmptyFeed(t *testing.T) {
	empty := serveFeed(t, &gtfs.FeedMessage{Header: feedHeader()})

	client := NewClient(empty.URL, empty.URL, 5*time.Second)
	batch, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(batch.Vehicles) != 0 || len(batch.TripUpdates) != 0 {
		t.Errorf("expected empty batch, got %+v", batch)
	}
}

func TestFetchPositionsFailureIsFatal(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	updates := serveFeed(t, tripUpdatesMessage())

	client := NewClient(broken.URL, updates.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("Fetch() with failing positions feed should return an error")
	}
}

func TestFetchTripUpdatesFailureIsFatal(t *testing.T) {
	positions := serveFeed(t, positionsMessage())
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	client := NewClient(positions.URL, broken.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("Fetch() with failing trip updates feed should return an error")
	}
}

func TestFetchRejectsMalformedPayload(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not protobuf"))
	}))
	defer garbage.Close()

	client := NewClient(garbage.URL, garbage.URL, 5*time.Second)
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Error("Fetch() with malformed payload should return an error")
	}
}
