package locations

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/kinodata/geocode"
)

// ErrInvalidEntry is returned for entries that cannot be stored.
var ErrInvalidEntry = errors.New("invalid place entry")

// s2CellLevel is the granularity of the cell token stored with each
// location. Level 10 cells are roughly 10km across.
const s2CellLevel = 10

// EntityTypeLocation is the entities.type value of location entities.
const EntityTypeLocation = "location"

// LocationRecord is what a Sink stores for one resolved place: a generic
// entity row plus the location row that points at it.
type LocationRecord struct {
	EntityUUID  uuid.UUID
	DisplayName string // entity name

	Name         string
	OfficialName string
	CountryCode  string
	Longitude    float64
	Latitude     float64
	GeonameID    int64
	LocationType string
	Population   int64

	Geohash  string
	S2Cell   string
	PointWKT string
}

// NewLocationRecord derives the stored record from a resolved entry.
func NewLocationRecord(e geocode.PlaceEntry) (LocationRecord, error) {
	if e.GeonameID <= 0 {
		return LocationRecord{}, fmt.Errorf("%w: geoname_id %d", ErrInvalidEntry, e.GeonameID)
	}
	ll := s2.LatLngFromDegrees(e.Latitude, e.Longitude)
	if !ll.IsValid() {
		return LocationRecord{}, fmt.Errorf("%w: coordinates %f,%f", ErrInvalidEntry, e.Latitude, e.Longitude)
	}

	return LocationRecord{
		EntityUUID:   uuid.New(),
		DisplayName:  DisplayName(e.OfficialName),
		Name:         e.Name,
		OfficialName: e.OfficialName,
		CountryCode:  e.CountryCode,
		Longitude:    e.Longitude,
		Latitude:     e.Latitude,
		GeonameID:    e.GeonameID,
		LocationType: string(e.LocationType),
		Population:   e.Population,
		Geohash:      geohash.Encode(e.Latitude, e.Longitude),
		S2Cell:       s2.CellIDFromLatLng(ll).Parent(s2CellLevel).ToToken(),
		PointWKT:     wkt.MarshalString(orb.Point{e.Longitude, e.Latitude}),
	}, nil
}

// DisplayName upper-cases the first letter of name when it is lower case.
// Some geonames records are stored all lower case.
func DisplayName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
