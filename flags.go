package geocode

import "sort"

// countryGeonameIDs maps ISO 3166-1 alpha-2 codes to the geoname_id of the
// country record. Used to derive the flag-emoji names injected at build time.
var countryGeonameIDs = map[string]int64{
	"AD": 3041565, "AE": 290557, "AF": 1149361, "AL": 783754,
	"AM": 174982, "AO": 3351879, "AR": 3865483, "AT": 2782113,
	"AU": 2077456, "AZ": 587116, "BA": 3277605, "BD": 1210997,
	"BE": 2802361, "BG": 732800, "BR": 3469034, "BY": 630336,
	"CA": 6251999, "CH": 2658434, "CL": 3895114, "CN": 1814991,
	"CO": 3686110, "CU": 3562981, "CZ": 3077311, "DE": 2921044,
	"DK": 2623032, "DZ": 2589581, "EC": 3658394, "EE": 453733,
	"EG": 357994, "ES": 2510769, "ET": 337996, "FI": 660013,
	"FR": 3017382, "GB": 2635167, "GE": 614540, "GH": 2300660,
	"GR": 390903, "HR": 3202326, "HU": 719819, "ID": 1643084,
	"IE": 2963597, "IL": 294640, "IN": 1269750, "IQ": 99237,
	"IR": 130758, "IS": 2629691, "IT": 3175395, "JP": 1861060,
	"KE": 192950, "KR": 1835841, "KZ": 1522867, "LB": 272103,
	"LT": 597427, "LU": 2960313, "LV": 458258, "MA": 2542007,
	"MX": 3996063, "MY": 1733045, "NA": 3355338, "NG": 2328926,
	"NL": 2750405, "NO": 3144096, "NZ": 2186224, "PE": 3932488,
	"PH": 1694008, "PK": 1168579, "PL": 798544, "PT": 2264397,
	"RO": 798549, "RS": 6290252, "RU": 2017370, "SA": 102358,
	"SE": 2661886, "SG": 1880251, "SI": 3190538, "SK": 3057568,
	"TH": 1605651, "TN": 2464461, "TR": 298795, "TW": 1668284,
	"UA": 690791, "US": 6252001, "VE": 3625428, "VN": 1562822,
	"ZA": 953987,
}

// flagEmoji returns the regional-indicator pair for a two-letter country code.
func flagEmoji(iso string) string {
	if len(iso) != 2 {
		return ""
	}
	const base = 0x1F1E6 // REGIONAL INDICATOR SYMBOL LETTER A
	r := []rune{base + rune(iso[0]-'A'), base + rune(iso[1]-'A')}
	return string(r)
}

// DefaultFlags returns the built-in flag → geoname_id mapping. The result is
// a fresh map on every call.
func DefaultFlags() map[string]int64 {
	flags := make(map[string]int64, len(countryGeonameIDs))
	for iso, id := range countryGeonameIDs {
		if f := flagEmoji(iso); f != "" {
			flags[f] = id
		}
	}
	return flags
}

// sortedFlagKeys gives flag injection a deterministic order.
func sortedFlagKeys(flags map[string]int64) []string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
