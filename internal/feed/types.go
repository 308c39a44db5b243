package feed

// RawVehicle is a single vehicle as reported by the vehicle positions feed
type RawVehicle struct {
	ID        string
	Label     string
	RouteID   string
	StartTime string
}

// TripUpdate carries the destination stop reported for a vehicle's
// current trip. At most one update per vehicle per poll; absence means
// the destination is unknown.
type TripUpdate struct {
	VehicleID         string
	DestinationStopID string
}

// Batch is the result of a single poll of both feeds
type Batch struct {
	Vehicles    []RawVehicle
	TripUpdates []TripUpdate
}
