package models

// Institution is a bundled reference record for a college or university.
type Institution struct {
	ID    int     `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	City  string  `json:"city" yaml:"city"`
	State string  `json:"state" yaml:"state"`
	Lat   float64 `json:"lat" yaml:"lat"`
	Lng   float64 `json:"lng" yaml:"lng"`
}

// NearbyInstitution pairs an institution with its distance from a query point.
type NearbyInstitution struct {
	Institution
	DistanceKm float64 `json:"distanceKm"`
}
