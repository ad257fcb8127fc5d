package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stonebridge/storefront-backend/pkg/db/models"
)

type stubLister struct {
	stores []models.Store
	err    error
}

func (s *stubLister) List(ctx context.Context) ([]models.Store, error) {
	return s.stores, s.err
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func fixtureStores() []models.Store {
	return []models.Store{
		{ID: uuid.New(), Name: "Woburn Electronics", City: "Woburn", StateCode: "MA", PostalCode: "01801", Latitude: 42.5273, Longitude: -71.1376},
		{ID: uuid.New(), Name: "Cambridge Outlet", City: "Cambridge", StateCode: "MA", PostalCode: "02141", Latitude: 42.3730, Longitude: -71.0935},
		{ID: uuid.New(), Name: "Lawrence Depot", City: "Lawrence", StateCode: "MA", PostalCode: "01843", Latitude: 42.6896, Longitude: -71.1488},
		{ID: uuid.New(), Name: "Portland Annex", City: "Portland", StateCode: "ME", PostalCode: "04101", Latitude: 43.6569, Longitude: -70.2557},
	}
}

func TestFindStoresByPostalCode(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubLister{stores: fixtureStores()})
	require.NoError(t, err)

	res, err := svc.FindStores(context.Background(), Query{PostalCode: "01803", Radius: intPtr(15)})
	require.NoError(t, err)

	assert.Equal(t, 15, res.Radius)
	assert.Equal(t, []int{15, 30, 50, 100, 300}, res.RadiusOptions)
	assert.Equal(t, "01803", res.SearchKey.PostalCode)
	require.Len(t, res.Stores, 3)
	// nearest first
	assert.Equal(t, "Woburn Electronics", res.Stores[0].Store.Name)
	assert.Equal(t, "Cambridge Outlet", res.Stores[1].Store.Name)
	assert.Equal(t, "Lawrence Depot", res.Stores[2].Store.Name)
}

func TestFindStoresDefaultRadius(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubLister{stores: fixtureStores()})
	require.NoError(t, err)

	res, err := svc.FindStores(context.Background(), Query{PostalCode: "04330"})
	require.NoError(t, err)

	assert.Equal(t, DefaultRadius, res.Radius)
	require.Len(t, res.Stores, 1)
	assert.Equal(t, "Portland Annex", res.Stores[0].Store.Name)
}

func TestFindStoresByCoordinates(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubLister{stores: fixtureStores()})
	require.NoError(t, err)

	res, err := svc.FindStores(context.Background(), Query{
		Lat:    floatPtr(42.6896),
		Lng:    floatPtr(-71.1488),
		Radius: intPtr(23),
	})
	require.NoError(t, err)

	require.NotNil(t, res.SearchKey.Lat)
	assert.Equal(t, 42.6896, *res.SearchKey.Lat)
	require.Len(t, res.Stores, 3)
	assert.Equal(t, "Lawrence Depot", res.Stores[0].Store.Name)
}

func TestFindStoresEmptyResults(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubLister{stores: fixtureStores()})
	require.NoError(t, err)

	cases := []struct {
		name  string
		query Query
	}{
		{name: "unknown postal code", query: Query{PostalCode: "012AB", Radius: intPtr(5)}},
		{name: "negative radius", query: Query{PostalCode: "01803", Radius: intPtr(-15)}},
		{name: "remote coordinates", query: Query{Lat: floatPtr(0), Lng: floatPtr(0)}},
		{name: "out of range coordinates", query: Query{Lat: floatPtr(100), Lng: floatPtr(190), Radius: intPtr(15)}},
		{name: "no criteria", query: Query{}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := svc.FindStores(context.Background(), tc.query)
			require.NoError(t, err)
			assert.Empty(t, res.Stores)
		})
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil)
	require.Error(t, err)
}
