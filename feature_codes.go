package geocode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// FeatureCode describes one geonames feature code, e.g. class "A", code "ADM1".
type FeatureCode struct {
	Class       string
	Code        string
	Name        string
	Description string
}

// FeatureCodes maps a feature code (without its class prefix) to its metadata.
type FeatureCodes map[string]FeatureCode

// ClassOf returns the feature class recorded for code, or fallback when the
// code is unknown.
func (fc FeatureCodes) ClassOf(code, fallback string) string {
	if f, ok := fc[code]; ok && f.Class != "" {
		return f.Class
	}
	return fallback
}

// loadFeatureCodes reads a featureCodes_xx.txt file.
// Format: CLASS.CODE<tab>Name<tab>Description
func loadFeatureCodes(path string) (FeatureCodes, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening feature codes: %w", err)
	}
	defer fi.Close()
	return parseFeatureCodes(fi)
}

func parseFeatureCodes(r io.Reader) (FeatureCodes, error) {
	codes := make(FeatureCodes)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		// The file ends with a "null" row that has no class prefix.
		parts := strings.SplitN(fields[0], ".", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}

		f := FeatureCode{Class: parts[0], Code: parts[1]}
		if len(fields) > 1 {
			f.Name = fields[1]
		}
		if len(fields) > 2 {
			f.Description = fields[2]
		}
		codes[f.Code] = f
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading feature codes: %w", err)
	}
	return codes, nil
}
