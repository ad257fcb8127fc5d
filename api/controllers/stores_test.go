package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/internal/stores"
	"github.com/stonebridge/storefront-backend/pkg/db/models"
)

type stubStoresService struct {
	result *stores.Result
	err    error
	query  *stores.Query
}

func (s *stubStoresService) FindStores(ctx context.Context, q stores.Query) (*stores.Result, error) {
	s.query = &q
	return s.result, s.err
}

func locatorResult() *stores.Result {
	return &stores.Result{
		Stores: []stores.StoreHit{
			{
				Store: models.Store{
					ID:         uuid.New(),
					Name:       "Stonebridge Woburn",
					Address1:   "300 Mishawum Rd",
					City:       "Woburn",
					StateCode:  "MA",
					PostalCode: "01801",
					Latitude:   42.5273334,
					Longitude:  -71.13758250000001,
				},
				Distance: 2.4,
			},
			{
				Store: models.Store{
					ID:         uuid.New(),
					Name:       "Stonebridge Cambridge",
					Address1:   "690 Cambridge St",
					City:       "Cambridge",
					StateCode:  "MA",
					PostalCode: "02141",
					Latitude:   42.3729794,
					Longitude:  -71.09346089999997,
				},
				Distance: 10.7,
			},
		},
		SearchKey:     stores.SearchKey{PostalCode: "01803"},
		Radius:        15,
		RadiusOptions: []int{15, 30, 50, 100, 300},
	}
}

type locatorResponse struct {
	Stores    []storeView    `json:"stores"`
	Locations []locationView `json:"locations"`
	SearchKey struct {
		PostalCode string   `json:"postalCode"`
		Lat        *float64 `json:"lat"`
		Long       *float64 `json:"long"`
	} `json:"searchKey"`
	Radius        int   `json:"radius"`
	RadiusOptions []int `json:"radiusOptions"`
}

func TestFindStoresByPostalCodeQuery(t *testing.T) {
	svc := &stubStoresService{result: locatorResult()}
	handler := FindStores(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/stores?postalCode=01803&radius=15", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body locatorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(body.Stores) != 2 {
		t.Fatalf("expected 2 stores got %d", len(body.Stores))
	}
	if len(body.Locations) != 2 {
		t.Fatalf("expected 2 locations got %d", len(body.Locations))
	}
	if body.SearchKey.PostalCode != "01803" {
		t.Fatalf("expected searchKey postal 01803 got %q", body.SearchKey.PostalCode)
	}
	if body.Radius != 15 {
		t.Fatalf("expected radius 15 got %d", body.Radius)
	}
	if len(body.RadiusOptions) != 5 || body.RadiusOptions[0] != 15 || body.RadiusOptions[4] != 300 {
		t.Fatalf("unexpected radius options %v", body.RadiusOptions)
	}
	if body.Stores[0].Name != "Stonebridge Woburn" || body.Stores[0].Distance != 2.4 {
		t.Fatalf("unexpected first store %+v", body.Stores[0])
	}

	if svc.query == nil || svc.query.PostalCode != "01803" {
		t.Fatalf("expected postal code forwarded to service, got %+v", svc.query)
	}
	if svc.query.Radius == nil || *svc.query.Radius != 15 {
		t.Fatalf("expected radius forwarded to service, got %+v", svc.query.Radius)
	}
}

func TestFindStoresByCoordinatesQuery(t *testing.T) {
	result := locatorResult()
	lat, lng := 42.6895734, -71.14879579999999
	result.SearchKey = stores.SearchKey{Lat: &lat, Lng: &lng}
	svc := &stubStoresService{result: result}
	handler := FindStores(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/stores?lat=42.6895734&long=-71.14879579999999", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body locatorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.SearchKey.Lat == nil || body.SearchKey.Long == nil {
		t.Fatalf("expected coordinate search key, got %+v", body.SearchKey)
	}

	if svc.query.Lat == nil || *svc.query.Lat != lat {
		t.Fatalf("expected lat forwarded, got %+v", svc.query.Lat)
	}
	if svc.query.Radius != nil {
		t.Fatal("expected no radius without the query parameter")
	}
}

func TestFindStoresEmptyResult(t *testing.T) {
	svc := &stubStoresService{result: &stores.Result{
		Stores:        nil,
		SearchKey:     stores.SearchKey{PostalCode: "99999"},
		Radius:        100,
		RadiusOptions: []int{15, 30, 50, 100, 300},
	}}
	handler := FindStores(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/stores?postalCode=99999", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body locatorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Stores) != 0 {
		t.Fatalf("expected no stores got %d", len(body.Stores))
	}
	if body.Stores == nil {
		t.Fatal("expected stores to be an empty array, not null")
	}
}

func TestFindStoresRejectsBadRadius(t *testing.T) {
	handler := FindStores(&stubStoresService{result: locatorResult()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/stores?radius=abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestFindStoresRejectsBadCoordinate(t *testing.T) {
	handler := FindStores(&stubStoresService{result: locatorResult()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/stores?lat=notanumber", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
