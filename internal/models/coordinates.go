package models

// Coordinates represents a stored geographical point.
// ID is nil until the record has been persisted.
type Coordinates struct {
	ID  *int64  `json:"id"`  // ID is assigned by the store on insert.
	Lat float64 `json:"lat"` // Lat is the latitude of the point.
	Lon float64 `json:"lon"` // Lon is the longitude of the point.
}

// CoordinatesInput is the payload accepted by the create operation.
// Pointers distinguish a missing field from an explicit zero.
type CoordinatesInput struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// AddressInput is the payload accepted by the geocode-and-store operation.
type AddressInput struct {
	Address string `json:"address"`
}

// NewCoordinates returns a persisted record with the given identifier.
func NewCoordinates(id int64, lat, lon float64) *Coordinates {
	return &Coordinates{ID: &id, Lat: lat, Lon: lon}
}
