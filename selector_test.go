package geocode

import "testing"

func TestChoose(t *testing.T) {
	city := PlaceEntry{Name: "Paris", GeonameID: 1, LocationType: LocationCity}
	place := PlaceEntry{Name: "Paris", GeonameID: 2, LocationType: LocationPlace}
	admin3 := PlaceEntry{Name: "Paris", GeonameID: 3, LocationType: LocationAdmin3}
	admin2 := PlaceEntry{Name: "Paris", GeonameID: 4, LocationType: LocationAdmin2}
	admin1 := PlaceEntry{Name: "Paris", GeonameID: 5, LocationType: LocationAdmin1}
	country := PlaceEntry{Name: "Paris", GeonameID: 6, LocationType: LocationCountry}
	region := PlaceEntry{Name: "Paris", GeonameID: 7, LocationType: LocationRegion}
	continent := PlaceEntry{Name: "Paris", GeonameID: 8, LocationType: LocationContinent}
	admin4 := PlaceEntry{Name: "Paris", GeonameID: 9, LocationType: LocationAdmin4}

	tests := []struct {
		name       string
		candidates []PlaceEntry
		want       int64
	}{
		{"city beats country", []PlaceEntry{country, city}, 1},
		{"place beats admin", []PlaceEntry{admin1, admin2, admin3, place}, 2},
		{"admin3 beats admin2", []PlaceEntry{admin2, admin3}, 3},
		{"admin2 beats admin1", []PlaceEntry{admin1, admin2}, 4},
		{"admin1 beats country", []PlaceEntry{country, admin1}, 5},
		{"first of a type wins", []PlaceEntry{region, {GeonameID: 10, LocationType: LocationCity}, city}, 10},
		{"fallback to first", []PlaceEntry{continent, region, admin4}, 8},
		{"single", []PlaceEntry{region}, 7},
	}
	for _, tt := range tests {
		got, ok := Choose(tt.candidates)
		if !ok {
			t.Errorf("%s: Choose returned no match", tt.name)
			continue
		}
		if got.GeonameID != tt.want {
			t.Errorf("%s: Choose picked %d, want %d", tt.name, got.GeonameID, tt.want)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	if _, ok := Choose(nil); ok {
		t.Error("Choose(nil) should report no match")
	}
	if _, ok := Choose([]PlaceEntry{}); ok {
		t.Error("Choose of an empty list should report no match")
	}
}
