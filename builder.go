package geocode

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// namibiaGeonameID is the country record geonames ships with the code "NA",
// which CSV readers commonly take for a missing value.
const namibiaGeonameID = 3355338

// BuildStats summarizes a build.
type BuildStats struct {
	Names       int                  // rows after alternate-name expansion
	Unlabelled  int                  // rows dropped for lack of a location type
	Entries     int                  // rows in the output
	ByType      map[LocationType]int // output rows per location type
	FlagsAdded  int
	USSynthesis bool // whether a "US" row was synthesized from "USA"
}

// builder carries the configuration and accumulated stats through the stages.
type builder struct {
	cfg      *BuildConfig
	features FeatureCodes
	stats    BuildStats
	log      *zap.Logger
}

// stage is one filter/transform pass of the pipeline.
type stage struct {
	name string
	run  func(b *builder, rows []row) []row
}

// stages run in this exact order; later stages read columns set by earlier ones.
var stages = []stage{
	{"category", (*builder).categoryFilter},
	{"population", (*builder).populationFilter},
	{"country-code", (*builder).countryCodeFilter},
	{"admin-noise", (*builder).adminNoiseFilter},
	{"expand-altnames", (*builder).expandAltnames},
	{"name-validity", (*builder).nameValidityFilter},
	{"short-names", (*builder).shortNameFilter},
	{"altname-length", (*builder).altnameLengthFilter},
	{"admin-level", (*builder).assignAdminLevel},
	{"altname-significance", (*builder).altnameSignificanceFilter},
	{"flags", (*builder).injectFlags},
	{"priority", (*builder).assignPriority},
	{"sort", (*builder).sortRows},
	{"location-type", (*builder).assignLocationType},
	{"allow-list", (*builder).allowListFilter},
}

// Build runs the gazetteer pipeline over src and returns the entries in
// priority order. The result is ready for WriteIndex or NewResolver.
func Build(ctx context.Context, src GazetteerSource, opts ...BuildOption) ([]PlaceEntry, BuildStats, error) {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Flags == nil {
		cfg.Flags = DefaultFlags()
	}

	b := &builder{cfg: cfg, log: cfg.Logger}

	b.log.Info("Reading geo data")
	records, err := src.RawRecords()
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("reading raw records: %w", err)
	}
	if len(records) == 0 {
		return nil, BuildStats{}, ErrNoSourceData
	}

	b.log.Info("Reading feature class data")
	b.features, err = src.FeatureMetadata()
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("reading feature metadata: %w", err)
	}

	rows := b.classify(records)
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, BuildStats{}, fmt.Errorf("build interrupted before %s: %w", st.name, err)
		}
		before := len(rows)
		rows = st.run(b, rows)
		b.log.Debug("Stage done",
			zap.String("stage", st.name),
			zap.Int("rows_in", before),
			zap.Int("rows_out", len(rows)))
	}

	entries := make([]PlaceEntry, len(rows))
	b.stats.ByType = make(map[LocationType]int)
	for i := range rows {
		entries[i] = rows[i].entry()
		b.stats.ByType[rows[i].locationType]++
	}
	b.stats.Entries = len(entries)

	b.log.Info("Collected location names", zap.Int("total", len(entries)))
	for _, lt := range AllLocationTypes {
		if n := b.stats.ByType[lt]; n > 0 {
			b.log.Info("Location type breakdown", zap.String("type", string(lt)), zap.Int("count", n))
		}
	}
	return entries, b.stats, nil
}

// classify copies raw records into scratch rows and resolves their feature
// class through the feature code table.
func (b *builder) classify(records []RawPlaceRecord) []row {
	rows := make([]row, len(records))
	for i, rec := range records {
		rows[i] = row{
			geonameID:      rec.GeonameID,
			name:           rec.Name,
			alternateNames: rec.AlternateNames,
			featureClass:   b.features.ClassOf(rec.FeatureCode, rec.FeatureClass),
			featureCode:    rec.FeatureCode,
			countryCode:    rec.CountryCode,
			population:     rec.Population,
			longitude:      rec.Longitude,
			latitude:       rec.Latitude,
			adminLevel:     noAdminLevel,
			priority:       noPriority,
		}
	}
	return rows
}

// filterRows keeps rows for which keep returns true, reusing the backing array.
func filterRows(rows []row, keep func(*row) bool) []row {
	out := rows[:0]
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

func (b *builder) categoryFilter(rows []row) []row {
	for i := range rows {
		if rows[i].geonameID == namibiaGeonameID {
			rows[i].countryCode = "NA"
		}
	}
	return filterRows(rows, func(r *row) bool {
		return r.isAdmin() || r.isPopulated() || r.isContOrRegion()
	})
}

func (b *builder) populationFilter(rows []row) []row {
	return filterRows(rows, func(r *row) bool {
		return r.population > b.cfg.MinPopulationCutoff || r.isContOrRegion()
	})
}

func (b *builder) countryCodeFilter(rows []row) []row {
	return filterRows(rows, func(r *row) bool {
		return r.countryCode != "" || r.isContOrRegion()
	})
}

func (b *builder) adminNoiseFilter(rows []row) []row {
	return filterRows(rows, func(r *row) bool {
		switch r.featureCode {
		case "ZN", "PCLH", "TERR":
			return false
		}
		return true
	})
}

// expandAltnames appends one row per alternate name after all primary rows.
func (b *builder) expandAltnames(rows []row) []row {
	var alts []row
	for i := range rows {
		rows[i].officialName = rows[i].name
		if rows[i].alternateNames == "" {
			continue
		}
		for _, alt := range strings.Split(rows[i].alternateNames, ",") {
			r := rows[i]
			r.name = alt
			r.isAltname = true
			alts = append(alts, r)
		}
	}
	rows = append(rows, alts...)
	b.stats.Names = len(rows)
	b.log.Info("Read location names", zap.Int("total", len(rows)))
	return rows
}

// nameValidityFilter drops rows with no name, such as the empty piece left
// by a trailing comma in the alternate names. Numeric names are kept.
func (b *builder) nameValidityFilter(rows []row) []row {
	return filterRows(rows, func(r *row) bool { return r.name != "" })
}

// shortNameFilter keeps 2-character ASCII names only for countries and
// US/CA divisions. Geonames has no plain "US" name for the United States,
// so one is derived from the "USA" country row first.
func (b *builder) shortNameFilter(rows []row) []row {
	for i := range rows {
		rows[i].isCountry = isCountryCode(rows[i].featureCode)
		rows[i].isASCII = isASCII(rows[i].name)
	}

	for i := range rows {
		if rows[i].isCountry && rows[i].name == "USA" {
			us := rows[i]
			us.name = "US"
			rows = append(rows, us)
			b.stats.USSynthesis = true
			break
		}
	}
	if !b.stats.USSynthesis {
		b.log.Debug("No USA country row, skipping US synthesis")
	}

	return filterRows(rows, func(r *row) bool {
		n := utf8.RuneCountInString(r.name)
		return !r.isASCII ||
			n > 2 ||
			(n == 2 && isUSorCA(r.countryCode)) ||
			(n == 2 && r.isCountry)
	})
}

// altnameLengthFilter removes short ASCII alternate names such as airport codes.
func (b *builder) altnameLengthFilter(rows []row) []row {
	return filterRows(rows, func(r *row) bool {
		drop := !r.isCountry &&
			!isUSorCA(r.countryCode) &&
			r.isASCII &&
			r.isAltname &&
			utf8.RuneCountInString(r.name) < 4
		return !drop
	})
}

func (b *builder) assignAdminLevel(rows []row) []row {
	for i := range rows {
		rows[i].adminLevel = adminLevelOf(rows[i].featureCode)
	}
	return rows
}

// altnameSignificanceFilter drops alternate names of minor subdivisions and
// small places.
func (b *builder) altnameSignificanceFilter(rows []row) []row {
	return filterRows(rows, func(r *row) bool {
		if !r.isAltname {
			return true
		}
		if r.adminLevel >= 3 && r.adminLevel <= 5 {
			return false
		}
		return !(r.isPopulated() && r.population < altnameMinPopulation)
	})
}

// injectFlags adds a row named after each flag for the country it maps to.
// Flags whose geoname_id is not in the data are skipped.
func (b *builder) injectFlags(rows []row) []row {
	wanted := make(map[int64]bool, len(b.cfg.Flags))
	for _, id := range b.cfg.Flags {
		wanted[id] = true
	}
	countries := make(map[int64]row)
	for i := range rows {
		r := rows[i]
		if r.isAltname || !wanted[r.geonameID] {
			continue
		}
		if _, seen := countries[r.geonameID]; !seen {
			countries[r.geonameID] = r
		}
	}

	keys := sortedFlagKeys(b.cfg.Flags)
	for _, flag := range keys {
		r, ok := countries[b.cfg.Flags[flag]]
		if !ok {
			continue
		}
		r.name = flag
		r.isASCII = isASCII(flag)
		rows = append(rows, r)
		b.stats.FlagsAdded++
	}
	return rows
}

func (b *builder) assignPriority(rows []row) []row {
	for _, rule := range priorityRules(b.cfg.LargeCityPopulationCutoff) {
		for i := range rows {
			if rule.match(&rows[i]) {
				rows[i].priority = rule.priority
			}
		}
	}
	return rows
}

// sortRows orders by priority ascending then population descending. Rows
// without a priority go last; ties keep their relative order.
func (b *builder) sortRows(rows []row) []row {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].priority != rows[j].priority {
			return rows[i].priority < rows[j].priority
		}
		return rows[i].population > rows[j].population
	})
	return rows
}

func (b *builder) assignLocationType(rows []row) []row {
	for _, rule := range locationTypeRules(b.cfg.LargeCityPopulationCutoff) {
		for i := range rows {
			if rule.match(&rows[i]) {
				rows[i].locationType = rule.label
			}
		}
	}

	out := filterRows(rows, func(r *row) bool { return r.locationType != "" })
	b.stats.Unlabelled = len(rows) - len(out)
	if b.stats.Unlabelled > 0 {
		b.log.Warn("Locations could not be matched to a location type and will be ignored",
			zap.Int("count", b.stats.Unlabelled))
	}
	return out
}

func (b *builder) allowListFilter(rows []row) []row {
	allowed := make(map[LocationType]bool, len(b.cfg.AllowedLocationTypes))
	for _, lt := range b.cfg.AllowedLocationTypes {
		allowed[lt] = true
	}
	return filterRows(rows, func(r *row) bool { return allowed[r.locationType] })
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
