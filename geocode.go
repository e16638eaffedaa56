// Package geocode resolves free-text place names to canonical geonames
// records.
//
// The package has three parts. Build turns a raw geonames dump into a
// flattened, filtered and prioritized list of PlaceEntry values which is
// written to disk with WriteIndex. A Resolver loads that list and answers
// exact-match name queries with Decode. Choose picks a single entry out of
// the candidates Decode returns.
//
//	entries, _, err := geocode.Build(ctx, geocode.NewGeonamesDump("./geonames-data"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := geocode.NewResolver(entries)
//	place, ok := r.Lookup("Berlin")
package geocode

import (
	"errors"
	"fmt"
)

// LocationType is the canonical label of a PlaceEntry.
type LocationType string

const (
	LocationCity       LocationType = "city"
	LocationPlace      LocationType = "place"
	LocationCountry    LocationType = "country"
	LocationContinent  LocationType = "continent"
	LocationRegion     LocationType = "region"
	LocationAdmin1     LocationType = "admin1"
	LocationAdmin2     LocationType = "admin2"
	LocationAdmin3     LocationType = "admin3"
	LocationAdmin4     LocationType = "admin4"
	LocationAdmin5     LocationType = "admin5"
	LocationAdminOther LocationType = "admin_other"
)

// AllLocationTypes lists every label the builder can assign, in a stable order.
var AllLocationTypes = []LocationType{
	LocationCity,
	LocationPlace,
	LocationCountry,
	LocationContinent,
	LocationRegion,
	LocationAdmin1,
	LocationAdmin2,
	LocationAdmin3,
	LocationAdmin4,
	LocationAdmin5,
	LocationAdminOther,
}

// ParseLocationType validates a location type label.
func ParseLocationType(s string) (LocationType, error) {
	for _, lt := range AllLocationTypes {
		if string(lt) == s {
			return lt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocationType, s)
}

// RawPlaceRecord is one row of the geonames dump.
type RawPlaceRecord struct {
	GeonameID      int64
	Name           string
	AlternateNames string // comma-separated
	FeatureClass   string
	FeatureCode    string
	CountryCode    string // empty when the dump has none
	Population     int64
	Longitude      float64
	Latitude       float64
}

// PlaceEntry is one (name, place) pairing that survived the build pipeline.
// Several entries may share a Name, and several may share a GeonameID when
// the place has alternate names.
//
// Field order is the persisted tuple order.
type PlaceEntry struct {
	Name         string
	OfficialName string
	CountryCode  string
	Longitude    float64
	Latitude     float64
	GeonameID    int64
	LocationType LocationType
	Population   int64
}

var (
	// ErrNoSourceData is returned when a gazetteer source yields no records.
	ErrNoSourceData = errors.New("gazetteer source returned no records")
	// ErrIndexCorrupt is returned when a persisted index cannot be decoded.
	ErrIndexCorrupt = errors.New("persisted index is corrupt")
	// ErrUnknownLocationType is returned for labels outside AllLocationTypes.
	ErrUnknownLocationType = errors.New("unknown location type")
)
