package geocode

import (
	"fmt"
	"strings"
)

const (
	featureClassAdmin     = "A"
	featureClassPopulated = "P"

	featureCodeContinent = "CONT"
	featureCodeRegion    = "RGN"
	featureCodeAdminD    = "ADMD"
)

// noAdminLevel marks rows whose feature code carries no admin level.
const noAdminLevel = -1

// noPriority sorts after every assigned priority.
const noPriority = 1 << 30

// altnameMinPopulation is the population a populated place needs to keep
// its alternate names.
const altnameMinPopulation = 100000

// row is the per-record scratch structure the pipeline stages mutate.
type row struct {
	geonameID      int64
	name           string
	officialName   string
	alternateNames string
	featureClass   string // resolved through the feature code table
	featureCode    string
	countryCode    string
	population     int64
	longitude      float64
	latitude       float64

	isAltname    bool
	isCountry    bool
	isASCII      bool
	adminLevel   int
	priority     int
	locationType LocationType
}

func (r *row) isContOrRegion() bool {
	return r.featureCode == featureCodeContinent || r.featureCode == featureCodeRegion
}

func (r *row) isPopulated() bool { return r.featureClass == featureClassPopulated }

func (r *row) isAdmin() bool { return r.featureClass == featureClassAdmin }

func (r *row) entry() PlaceEntry {
	return PlaceEntry{
		Name:         r.name,
		OfficialName: r.officialName,
		CountryCode:  r.countryCode,
		Longitude:    r.longitude,
		Latitude:     r.latitude,
		GeonameID:    r.geonameID,
		LocationType: r.locationType,
		Population:   r.population,
	}
}

// adminLevels maps feature codes to their administrative depth.
var adminLevels = func() map[string]int {
	m := map[string]int{
		"PCLI": 0, "PCLD": 0, "PCLF": 0, "PCLS": 0,
		"PCLIX": 0, "PCLX": 0, "PCL": 0,
	}
	for level := 1; level <= 5; level++ {
		m[fmt.Sprintf("ADM%d", level)] = level
		m[fmt.Sprintf("ADM%dH", level)] = level
	}
	return m
}()

func adminLevelOf(featureCode string) int {
	if level, ok := adminLevels[featureCode]; ok {
		return level
	}
	return noAdminLevel
}

func isCountryCode(featureCode string) bool {
	return strings.HasPrefix(featureCode, "PCL")
}

func isUSorCA(cc string) bool {
	return cc == "US" || cc == "CA"
}

// priorityRule assigns priority to every row it matches. Rules run in order
// and a later match overwrites an earlier one.
type priorityRule struct {
	name     string
	priority int
	match    func(*row) bool
}

func priorityRules(largeCity int64) []priorityRule {
	return []priorityRule{
		{"region", 7, func(r *row) bool { return r.featureCode == featureCodeRegion }},
		{"continent", 6, func(r *row) bool { return r.featureCode == featureCodeContinent }},
		{"admin>1", 5, func(r *row) bool { return r.isAdmin() && r.adminLevel > 1 }},
		{"populated", 4, func(r *row) bool { return r.isPopulated() }},
		{"country", 3, func(r *row) bool { return r.isAdmin() && r.adminLevel == 0 }},
		{"admin1", 2, func(r *row) bool { return r.isAdmin() && r.adminLevel == 1 }},
		{"large-city", 1, func(r *row) bool {
			return r.population > largeCity && r.isPopulated() && !r.isAltname
		}},
	}
}

// locationTypeRule labels every row it matches, overwriting earlier labels.
type locationTypeRule struct {
	label LocationType
	match func(*row) bool
}

func locationTypeRules(largeCity int64) []locationTypeRule {
	rules := make([]locationTypeRule, 0, 11)
	for level := 1; level <= 5; level++ {
		rules = append(rules, locationTypeRule{
			label: LocationType(fmt.Sprintf("admin%d", level)),
			match: func(r *row) bool { return r.adminLevel == level },
		})
	}
	return append(rules,
		locationTypeRule{LocationAdminOther, func(r *row) bool { return r.featureCode == featureCodeAdminD }},
		locationTypeRule{LocationCountry, func(r *row) bool { return r.adminLevel == 0 }},
		locationTypeRule{LocationPlace, func(r *row) bool { return r.isPopulated() && r.population <= largeCity }},
		locationTypeRule{LocationCity, func(r *row) bool { return r.isPopulated() && r.population > largeCity }},
		locationTypeRule{LocationContinent, func(r *row) bool { return r.featureCode == featureCodeContinent }},
		locationTypeRule{LocationRegion, func(r *row) bool { return r.featureCode == featureCodeRegion }},
	)
}
