package geo

import (
	"testing"

	"googlemaps.github.io/maps"

	"freta/internal/types"
)

func TestCountryCode(t *testing.T) {
	components := []maps.AddressComponent{
		{LongName: "Lisboa", ShortName: "Lisboa", Types: []string{"locality", "political"}},
		{LongName: "Portugal", ShortName: "pt", Types: []string{"country", "political"}},
	}
	if got := countryCode(components); got != "PT" {
		t.Errorf("countryCode = %q, want PT", got)
	}

	if got := countryCode(nil); got != "" {
		t.Errorf("countryCode(nil) = %q, want empty", got)
	}

	noCountry := []maps.AddressComponent{
		{LongName: "Porto", ShortName: "Porto", Types: []string{"locality"}},
	}
	if got := countryCode(noCountry); got != "" {
		t.Errorf("countryCode without country component = %q, want empty", got)
	}
}

func TestLatLng(t *testing.T) {
	got := latLng(types.Point{Lat: 38.7223, Lng: -9.1393})
	if got != "38.722300,-9.139300" {
		t.Errorf("latLng = %q", got)
	}
}
