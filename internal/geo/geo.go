// Package geo ranks the bundled institution list by distance from a point.
package geo

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"

	"edumarket/internal/models"

	"gopkg.in/yaml.v3"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DefaultRadiusKm is the search radius used when the caller gives none.
const DefaultRadiusKm = 100.0

// ErrLocationUnavailable means no usable coordinate was supplied, as opposed to
// a valid coordinate with no institutions in range.
var ErrLocationUnavailable = errors.New("location unavailable")

//go:embed institutions.yaml
var institutionsYAML []byte

// LoadInstitutions decodes the bundled reference list.
func LoadInstitutions() ([]models.Institution, error) {
	var institutions []models.Institution
	if err := yaml.Unmarshal(institutionsYAML, &institutions); err != nil {
		return nil, fmt.Errorf("failed to decode institutions: %w", err)
	}
	return institutions, nil
}

// DistanceKm returns the great-circle distance between two points using the
// haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidCoordinate reports whether lat/lng lie inside the usual ranges.
func ValidCoordinate(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lng) &&
		lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Resolver answers proximity queries over a fixed institution list.
type Resolver struct {
	institutions []models.Institution
}

// NewResolver creates a Resolver over a copy of institutions.
func NewResolver(institutions []models.Institution) *Resolver {
	return &Resolver{institutions: append([]models.Institution(nil), institutions...)}
}

// All returns the unfiltered reference list in its bundled order.
func (r *Resolver) All() []models.Institution {
	return append([]models.Institution(nil), r.institutions...)
}

// Nearby returns institutions within radiusKm of the point, closest first.
// Equal distances keep the reference list order.
func (r *Resolver) Nearby(lat, lng, radiusKm float64) ([]models.NearbyInstitution, error) {
	if !ValidCoordinate(lat, lng) {
		return nil, fmt.Errorf("%w: %f,%f is not a valid coordinate", ErrLocationUnavailable, lat, lng)
	}

	nearby := make([]models.NearbyInstitution, 0)
	for _, inst := range r.institutions {
		d := DistanceKm(lat, lng, inst.Lat, inst.Lng)
		if d <= radiusKm {
			nearby = append(nearby, models.NearbyInstitution{Institution: inst, DistanceKm: d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}
