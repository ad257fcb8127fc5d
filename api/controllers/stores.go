package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stonebridge/storefront-backend/api/responses"
	"github.com/stonebridge/storefront-backend/api/validators"
	"github.com/stonebridge/storefront-backend/internal/stores"
	pkgerrors "github.com/stonebridge/storefront-backend/pkg/errors"
	"github.com/stonebridge/storefront-backend/pkg/logger"
)

type storeView struct {
	ID         uuid.UUID `json:"ID"`
	Name       string    `json:"name"`
	Address1   string    `json:"address1"`
	Address2   *string   `json:"address2,omitempty"`
	City       string    `json:"city"`
	StateCode  string    `json:"stateCode"`
	PostalCode string    `json:"postalCode"`
	Phone      string    `json:"phone,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Distance   float64   `json:"distance"`
}

// locationView is the map pin subset of a store hit.
type locationView struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FindStores is the store locator endpoint: radius search around a postal
// code or an explicit coordinate pair.
func FindStores(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "long")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := validators.ParseQueryInt(r, "radius", 0, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := stores.Query{
			PostalCode: strings.TrimSpace(r.URL.Query().Get("postalCode")),
			Lat:        lat,
			Lng:        lng,
		}
		if radius > 0 {
			query.Radius = &radius
		}

		result, err := svc.FindStores(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeViews := make([]storeView, 0, len(result.Stores))
		locations := make([]locationView, 0, len(result.Stores))
		for _, hit := range result.Stores {
			storeViews = append(storeViews, storeView{
				ID:         hit.Store.ID,
				Name:       hit.Store.Name,
				Address1:   hit.Store.Address1,
				Address2:   hit.Store.Address2,
				City:       hit.Store.City,
				StateCode:  hit.Store.StateCode,
				PostalCode: hit.Store.PostalCode,
				Phone:      hit.Store.Phone,
				Latitude:   hit.Store.Latitude,
				Longitude:  hit.Store.Longitude,
				Distance:   hit.Distance,
			})
			locations = append(locations, locationView{
				Name:      hit.Store.Name,
				Latitude:  hit.Store.Latitude,
				Longitude: hit.Store.Longitude,
			})
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"stores":        storeViews,
			"locations":     locations,
			"searchKey":     result.SearchKey,
			"radius":        result.Radius,
			"radiusOptions": result.RadiusOptions,
		})
	}
}
