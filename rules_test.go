package geocode

import "testing"

func TestAdminLevelOf(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"PCLI", 0},
		{"PCLD", 0},
		{"ADM1", 1},
		{"ADM1H", 1},
		{"ADM2", 2},
		{"ADM3", 3},
		{"ADM4", 4},
		{"ADM5", 5},
		{"ADMD", noAdminLevel},
		{"PPL", noAdminLevel},
		{"", noAdminLevel},
	}
	for _, tt := range tests {
		if got := adminLevelOf(tt.code); got != tt.want {
			t.Errorf("adminLevelOf(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestPriorityRulesOverwrite(t *testing.T) {
	tests := []struct {
		name string
		r    row
		want int
	}{
		{"large city", row{featureClass: "P", population: 300000}, 1},
		{"large city altname", row{featureClass: "P", population: 300000, isAltname: true}, 4},
		{"cutoff is exclusive", row{featureClass: "P", population: 200000}, 4},
		{"admin1", row{featureClass: "A", adminLevel: 1}, 2},
		{"country", row{featureClass: "A", adminLevel: 0, featureCode: "PCLI"}, 3},
		{"admin3", row{featureClass: "A", adminLevel: 3}, 5},
		{"continent", row{featureClass: "L", featureCode: "CONT", adminLevel: noAdminLevel}, 6},
		{"region", row{featureClass: "L", featureCode: "RGN", adminLevel: noAdminLevel}, 7},
		{"admd", row{featureClass: "A", featureCode: "ADMD", adminLevel: noAdminLevel}, noPriority},
	}
	rules := priorityRules(DefaultLargeCityPopulationCutoff)
	for _, tt := range tests {
		r := tt.r
		r.priority = noPriority
		for _, rule := range rules {
			if rule.match(&r) {
				r.priority = rule.priority
			}
		}
		if r.priority != tt.want {
			t.Errorf("%s: priority = %d, want %d", tt.name, r.priority, tt.want)
		}
	}
}

func TestLocationTypeRules(t *testing.T) {
	tests := []struct {
		name string
		r    row
		want LocationType
	}{
		{"big place", row{featureClass: "P", population: 500000, adminLevel: noAdminLevel}, LocationCity},
		{"small place", row{featureClass: "P", population: 50000, adminLevel: noAdminLevel}, LocationPlace},
		{"country", row{featureClass: "A", featureCode: "PCLI", adminLevel: 0}, LocationCountry},
		{"admin4", row{featureClass: "A", featureCode: "ADM4", adminLevel: 4}, LocationAdmin4},
		{"admd", row{featureClass: "A", featureCode: "ADMD", adminLevel: noAdminLevel}, LocationAdminOther},
		{"continent", row{featureCode: "CONT", adminLevel: noAdminLevel}, LocationContinent},
		{"region", row{featureCode: "RGN", adminLevel: noAdminLevel}, LocationRegion},
		{"leased area", row{featureClass: "A", featureCode: "LTER", adminLevel: noAdminLevel}, ""},
	}
	rules := locationTypeRules(DefaultLargeCityPopulationCutoff)
	for _, tt := range tests {
		r := tt.r
		for _, rule := range rules {
			if rule.match(&r) {
				r.locationType = rule.label
			}
		}
		if r.locationType != tt.want {
			t.Errorf("%s: location type = %q, want %q", tt.name, r.locationType, tt.want)
		}
	}
}

func TestIsASCII(t *testing.T) {
	tests := map[string]bool{
		"":       true,
		"Berlin": true,
		"Berlín": false,
		"東京":     false,
		"🇩🇪":     false,
	}
	for in, want := range tests {
		if got := isASCII(in); got != want {
			t.Errorf("isASCII(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFlagEmoji(t *testing.T) {
	tests := map[string]string{
		"US":  "\U0001F1FA\U0001F1F8",
		"DE":  "\U0001F1E9\U0001F1EA",
		"NA":  "\U0001F1F3\U0001F1E6",
		"USA": "",
		"":    "",
	}
	for iso, want := range tests {
		if got := flagEmoji(iso); got != want {
			t.Errorf("flagEmoji(%q) = %q, want %q", iso, got, want)
		}
	}
}

func TestDefaultFlags(t *testing.T) {
	flags := DefaultFlags()
	if len(flags) != len(countryGeonameIDs) {
		t.Fatalf("DefaultFlags has %d entries, want %d", len(flags), len(countryGeonameIDs))
	}
	if id := flags[flagEmoji("NA")]; id != namibiaGeonameID {
		t.Errorf("Namibia flag maps to %d, want %d", id, namibiaGeonameID)
	}

	// Callers may modify the result.
	delete(flags, flagEmoji("US"))
	if _, ok := DefaultFlags()[flagEmoji("US")]; !ok {
		t.Error("DefaultFlags shares its map between calls")
	}
}

func TestParseLocationType(t *testing.T) {
	for _, lt := range AllLocationTypes {
		got, err := ParseLocationType(string(lt))
		if err != nil || got != lt {
			t.Errorf("ParseLocationType(%q) = %q, %v", lt, got, err)
		}
	}
	if _, err := ParseLocationType("town"); err == nil {
		t.Error("ParseLocationType(\"town\") should fail")
	}
}
