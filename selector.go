package geocode

// selectionOrder is the location type precedence Choose applies. It is
// independent of the build priority: a city beats a country of the same name.
var selectionOrder = []LocationType{
	LocationCity,
	LocationPlace,
	LocationAdmin3,
	LocationAdmin2,
	LocationAdmin1,
	LocationCountry,
}

// Choose picks one entry from the candidates Decode returned. The first
// candidate of the first type in selectionOrder wins; when no candidate has
// one of those types the first candidate is returned. ok is false only for
// an empty input.
func Choose(candidates []PlaceEntry) (PlaceEntry, bool) {
	if len(candidates) == 0 {
		return PlaceEntry{}, false
	}
	for _, lt := range selectionOrder {
		for _, c := range candidates {
			if c.LocationType == lt {
				return c, true
			}
		}
	}
	return candidates[0], true
}
