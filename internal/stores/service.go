package stores

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
)

// DefaultRadius is the search radius in miles when the client sends none.
const DefaultRadius = 100

// RadiusOptions are the radii the storefront offers in its locator UI.
var RadiusOptions = []int{15, 30, 50, 100, 300}

// Query carries the locator search parameters. Coordinates win over a
// postal code when both are present.
type Query struct {
	PostalCode string
	Lat        *float64
	Lng        *float64
	Radius     *int
}

// SearchKey echoes back the criterion that drove the search.
type SearchKey struct {
	PostalCode string   `json:"postalCode,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"long,omitempty"`
}

// StoreHit is a store plus its distance from the search origin in miles.
type StoreHit struct {
	Store    models.Store
	Distance float64
}

// Result is the locator search outcome.
type Result struct {
	Stores        []StoreHit
	SearchKey     SearchKey
	Radius        int
	RadiusOptions []int
}

type storeLister interface {
	List(ctx context.Context) ([]models.Store, error)
}

// Service finds stores within a radius of a postal code or coordinate.
type Service interface {
	FindStores(ctx context.Context, q Query) (*Result, error)
}

type service struct {
	repo storeLister
}

// NewService builds the store locator.
func NewService(repo storeLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) FindStores(ctx context.Context, q Query) (*Result, error) {
	result := &Result{
		Stores:        []StoreHit{},
		Radius:        DefaultRadius,
		RadiusOptions: RadiusOptions,
	}
	if q.Radius != nil {
		result.Radius = *q.Radius
	}

	origin, key, ok := resolveOrigin(q)
	result.SearchKey = key
	if !ok || result.Radius <= 0 {
		return result, nil
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	limit := float64(result.Radius)
	for _, st := range all {
		d := haversineMiles(origin, Coordinate{Lat: st.Latitude, Lng: st.Longitude})
		if d <= limit {
			result.Stores = append(result.Stores, StoreHit{Store: st, Distance: d})
		}
	}
	sort.SliceStable(result.Stores, func(i, j int) bool {
		return result.Stores[i].Distance < result.Stores[j].Distance
	})
	return result, nil
}

func resolveOrigin(q Query) (Coordinate, SearchKey, bool) {
	if q.Lat != nil && q.Lng != nil {
		key := SearchKey{Lat: q.Lat, Lng: q.Lng}
		if math.Abs(*q.Lat) > 90 || math.Abs(*q.Lng) > 180 {
			return Coordinate{}, key, false
		}
		return Coordinate{Lat: *q.Lat, Lng: *q.Lng}, key, true
	}
	if q.PostalCode != "" {
		key := SearchKey{PostalCode: q.PostalCode}
		origin, ok := GeocodePostalCode(q.PostalCode)
		return origin, key, ok
	}
	return Coordinate{}, SearchKey{}, false
}

const earthRadiusMiles = 3958.8

func haversineMiles(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
