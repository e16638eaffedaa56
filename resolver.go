package geocode

import (
	"fmt"

	"go.uber.org/zap"
)

// stringInterner stores each distinct string once and hands out small
// integer indexes. Index 0 is reserved for the empty string.
//
// Interners are filled while a Resolver is constructed and only read
// afterwards, so they need no locking.
type stringInterner[T ~uint8 | ~uint16] struct {
	lookup []string     // index -> string
	index  map[string]T // string -> index
}

func newStringInterner[T ~uint8 | ~uint16](capacity int) *stringInterner[T] {
	si := &stringInterner[T]{
		lookup: make([]string, 1, capacity),
		index:  make(map[string]T, capacity),
	}
	si.index[""] = 0
	return si
}

// intern returns the index for s, adding it if needed. Panics when the
// index type overflows instead of silently wrapping.
func (si *stringInterner[T]) intern(s string) T {
	if idx, ok := si.index[s]; ok {
		return idx
	}
	maxVal := int(^T(0))
	if len(si.lookup) > maxVal {
		panic(fmt.Sprintf("stringInterner capacity exceeded: %d entries (max %d)", len(si.lookup), maxVal))
	}
	idx := T(len(si.lookup))
	si.lookup = append(si.lookup, s)
	si.index[s] = idx
	return idx
}

func (si *stringInterner[T]) get(idx T) string {
	if int(idx) < len(si.lookup) {
		return si.lookup[idx]
	}
	return ""
}

func (si *stringInterner[T]) count() int {
	return len(si.lookup)
}

// place is the in-memory form of a PlaceEntry. Country codes and location
// types repeat millions of times and are stored as interner indexes.
type place struct {
	name         string
	officialName string
	longitude    float64
	latitude     float64
	geonameID    int64
	population   int64
	country      uint16
	locationType uint8
}

// Resolver answers exact-match name queries against a built gazetteer.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	places    []place
	nameIndex map[string][]int // name -> indexes into places, in stored order
	countries *stringInterner[uint16]
	types     *stringInterner[uint8]
	log       *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used while loading.
func WithResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver indexes entries by name. The relative order of entries sharing
// a name is kept, so Decode returns them in build priority order.
func NewResolver(entries []PlaceEntry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		places:    make([]place, len(entries)),
		nameIndex: make(map[string][]int, len(entries)),
		countries: newStringInterner[uint16](300),
		types:     newStringInterner[uint8](len(AllLocationTypes) + 1),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i, e := range entries {
		r.places[i] = place{
			name:         e.Name,
			officialName: e.OfficialName,
			longitude:    e.Longitude,
			latitude:     e.Latitude,
			geonameID:    e.GeonameID,
			population:   e.Population,
			country:      r.countries.intern(e.CountryCode),
			locationType: r.types.intern(string(e.LocationType)),
		}
		r.nameIndex[e.Name] = append(r.nameIndex[e.Name], i)
	}

	r.log.Info("Loaded gazetteer index",
		zap.Int("entries", len(r.places)),
		zap.Int("names", len(r.nameIndex)),
		zap.Int("countries", r.countries.count()-1))
	return r
}

// LoadResolver reads a persisted index and builds a Resolver over it.
func LoadResolver(path string, opts ...ResolverOption) (*Resolver, error) {
	entries, err := ReadIndex(path)
	if err != nil {
		return nil, fmt.Errorf("loading index %s: %w", path, err)
	}
	return NewResolver(entries, opts...), nil
}

// Decode returns every entry whose name is exactly name, in stored order.
// The query is not trimmed, case-folded or otherwise normalized. An unknown
// name yields nil.
func (r *Resolver) Decode(name string) []PlaceEntry {
	indices, ok := r.nameIndex[name]
	if !ok {
		return nil
	}
	out := make([]PlaceEntry, len(indices))
	for i, idx := range indices {
		out[i] = r.entry(idx)
	}
	return out
}

// Lookup decodes name and picks the best candidate with Choose.
func (r *Resolver) Lookup(name string) (PlaceEntry, bool) {
	return Choose(r.Decode(name))
}

// Len returns the number of indexed entries.
func (r *Resolver) Len() int {
	return len(r.places)
}

func (r *Resolver) entry(idx int) PlaceEntry {
	p := r.places[idx]
	return PlaceEntry{
		Name:         p.name,
		OfficialName: p.officialName,
		CountryCode:  r.countries.get(p.country),
		Longitude:    p.longitude,
		Latitude:     p.latitude,
		GeonameID:    p.geonameID,
		LocationType: LocationType(r.types.get(p.locationType)),
		Population:   p.population,
	}
}
