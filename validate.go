package geocode

import "fmt"

// DefaultMinIndexEntries is the smallest entry count a full geonames build
// is expected to produce with the default cutoffs.
const DefaultMinIndexEntries = 50000

// knownPlace is a query whose chosen match is stable across geonames releases.
type knownPlace struct {
	query        string
	wantOfficial string
	wantCountry  string
	wantType     LocationType
}

// knownPlaces are used to validate a freshly built index.
var knownPlaces = []knownPlace{
	{"Austin", "Austin", "US", LocationCity},
	{"Paris", "Paris", "FR", LocationCity},
	{"Sydney", "Sydney", "AU", LocationCity},
	{"Berlin", "Berlin", "DE", LocationCity},
	{"Tokyo", "Tokyo", "JP", LocationCity},
	{"Germany", "Germany", "DE", LocationCountry},
	{"US", "United States", "US", LocationCountry},
	{"\U0001F1E9\U0001F1EA", "Germany", "DE", LocationCountry},
}

// ValidateIndex checks that r holds at least minEntries entries and that
// well-known names still resolve to the expected places.
func ValidateIndex(r *Resolver, minEntries int) error {
	if n := r.Len(); n < minEntries {
		return fmt.Errorf("entry count too low: got %d, want >= %d", n, minEntries)
	}
	for _, tc := range knownPlaces {
		got, ok := r.Lookup(tc.query)
		if !ok {
			return fmt.Errorf("lookup(%q) found nothing", tc.query)
		}
		if got.OfficialName != tc.wantOfficial || got.CountryCode != tc.wantCountry {
			return fmt.Errorf("lookup(%q) = %s/%s, want %s/%s",
				tc.query, got.OfficialName, got.CountryCode, tc.wantOfficial, tc.wantCountry)
		}
		if got.LocationType != tc.wantType {
			return fmt.Errorf("lookup(%q) type = %s, want %s", tc.query, got.LocationType, tc.wantType)
		}
	}
	return nil
}
