package stores

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64
	Lng float64
}

// postalCodeTable maps supported postal codes to their centroid. Real
// geocoding is an external collaborator; the locator only needs a static
// table covering the markets the storefront ships to.
var postalCodeTable = map[string]Coordinate{
	// Massachusetts
	"01801": {Lat: 42.4868, Lng: -71.1543}, // Woburn
	"01803": {Lat: 42.5048, Lng: -71.2023}, // Burlington
	"01843": {Lat: 42.6889, Lng: -71.1612}, // Lawrence
	"02108": {Lat: 42.3588, Lng: -71.0642}, // Boston
	"02118": {Lat: 42.3388, Lng: -71.0765}, // Boston South End
	"02141": {Lat: 42.3704, Lng: -71.0824}, // Cambridge
	// Maine
	"04101": {Lat: 43.6591, Lng: -70.2568}, // Portland
	"04330": {Lat: 44.3106, Lng: -69.7795}, // Augusta
	// New York
	"10001": {Lat: 40.7506, Lng: -73.9971},
	"11201": {Lat: 40.6955, Lng: -73.9895},
	// California
	"94105": {Lat: 37.7898, Lng: -122.3942},
	"90012": {Lat: 34.0614, Lng: -118.2385},
}

// GeocodePostalCode resolves a postal code against the static table.
func GeocodePostalCode(postalCode string) (Coordinate, bool) {
	c, ok := postalCodeTable[postalCode]
	return c, ok
}
