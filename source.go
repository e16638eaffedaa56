package geocode

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/geo/s2"
)

// GazetteerSource supplies the raw input of a build.
type GazetteerSource interface {
	// RawRecords returns every gazetteer row. Malformed rows are skipped.
	RawRecords() ([]RawPlaceRecord, error)
	// FeatureMetadata returns the feature code table used to classify rows.
	FeatureMetadata() (FeatureCodes, error)
}

// DataSourceID identifies a geonames download.
type DataSourceID string

const (
	DataSourceAllCountries DataSourceID = "geonamesAllCountries"
	DataSourceFeatureCodes DataSourceID = "geonamesFeatureCodes"
)

// DataSource defines a geonames file and where it is downloaded from.
type DataSource struct {
	URL  string       // Download URL
	File string       // File name inside the data directory
	ID   DataSourceID // Identifier for processing logic
}

// dataSetFiles are the files a GeonamesDump reads.
var dataSetFiles = []DataSource{
	{URL: "https://download.geonames.org/export/dump/allCountries.zip", File: "allCountries.zip", ID: DataSourceAllCountries},
	{URL: "https://download.geonames.org/export/dump/featureCodes_en.txt", File: "featureCodes_en.txt", ID: DataSourceFeatureCodes},
}

// geonamesColumns is the column count of the geonames main table.
const geonamesColumns = 19

// GeonamesDump reads a geonames export from a directory. The main table may
// be either allCountries.zip or an unpacked allCountries.txt.
type GeonamesDump struct {
	Dir string
}

// NewGeonamesDump returns a source reading from dir.
func NewGeonamesDump(dir string) *GeonamesDump {
	return &GeonamesDump{Dir: dir}
}

// RawRecords implements GazetteerSource.
func (d *GeonamesDump) RawRecords() ([]RawPlaceRecord, error) {
	zipPath := filepath.Join(d.Dir, "allCountries.zip")
	if _, err := os.Stat(zipPath); err == nil {
		return readGeonamesZip(zipPath)
	}

	fi, err := os.Open(filepath.Join(d.Dir, "allCountries.txt"))
	if err != nil {
		return nil, fmt.Errorf("opening geonames table: %w", err)
	}
	defer fi.Close()
	return readGeonamesTable(fi)
}

// FeatureMetadata implements GazetteerSource.
func (d *GeonamesDump) FeatureMetadata() (FeatureCodes, error) {
	return loadFeatureCodes(filepath.Join(d.Dir, "featureCodes_en.txt"))
}

func readGeonamesZip(path string) ([]RawPlaceRecord, error) {
	rz, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip file: %w", err)
	}
	defer rz.Close()

	var records []RawPlaceRecord
	for _, uF := range rz.File {
		// The archive also carries a readme.
		if !strings.HasSuffix(uF.Name, ".txt") || strings.HasPrefix(strings.ToLower(uF.Name), "readme") {
			continue
		}
		recs, err := readZipEntry(uF)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

// readZipEntry reads a single file entry from a zip archive.
// Extracted to avoid defer-in-loop.
func readZipEntry(uF *zip.File) ([]RawPlaceRecord, error) {
	fi, err := uF.Open()
	if err != nil {
		return nil, fmt.Errorf("opening file in zip: %w", err)
	}
	defer fi.Close()
	return readGeonamesTable(fi)
}

// readGeonamesTable parses the tab-separated geonames main table.
func readGeonamesTable(r io.Reader) ([]RawPlaceRecord, error) {
	scanner := bufio.NewScanner(r)
	// Alternate-name columns of large places exceed the default 64KB token.
	scanner.Buffer(make([]byte, 0, 1<<20), 16<<20)

	var records []RawPlaceRecord
	for scanner.Scan() {
		if rec, ok := parseGeonamesLine(scanner.Text()); ok {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading geonames table: %w", err)
	}
	return records, nil
}

// parseGeonamesLine converts one row of the main table. Rows with a
// malformed id or coordinates are rejected.
func parseGeonamesLine(line string) (RawPlaceRecord, bool) {
	fields := strings.SplitN(line, "\t", geonamesColumns)
	if len(fields) != geonamesColumns {
		return RawPlaceRecord{}, false
	}

	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return RawPlaceRecord{}, false
	}
	lat, errLat := strconv.ParseFloat(fields[4], 64)
	lng, errLng := strconv.ParseFloat(fields[5], 64)
	if errLat != nil || errLng != nil {
		// Skip rather than store at (0,0)
		return RawPlaceRecord{}, false
	}
	if !s2.LatLngFromDegrees(lat, lng).IsValid() {
		return RawPlaceRecord{}, false
	}
	pop, _ := strconv.ParseInt(fields[14], 10, 64) // Population of 0 is acceptable

	return RawPlaceRecord{
		GeonameID:      id,
		Name:           strings.Trim(fields[1], " "),
		AlternateNames: fields[3],
		FeatureClass:   fields[6],
		FeatureCode:    fields[7],
		CountryCode:    fields[8],
		Population:     pop,
		Latitude:       lat,
		Longitude:      lng,
	}, true
}

// SliceSource is an in-memory GazetteerSource.
type SliceSource struct {
	Records  []RawPlaceRecord
	Features FeatureCodes
}

// RawRecords implements GazetteerSource.
func (s SliceSource) RawRecords() ([]RawPlaceRecord, error) {
	return s.Records, nil
}

// FeatureMetadata implements GazetteerSource. A nil table means every row is
// classified by its own feature class.
func (s SliceSource) FeatureMetadata() (FeatureCodes, error) {
	if s.Features == nil {
		return FeatureCodes{}, nil
	}
	return s.Features, nil
}

// downloadMu serializes downloads so concurrent callers do not write the
// same file.
var downloadMu sync.Mutex

// DownloadDataSets downloads the geonames files into dir unless they already
// exist there.
func DownloadDataSets(dir string) error {
	downloadMu.Lock()
	defer downloadMu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	for _, f := range dataSetFiles {
		localPath := filepath.Join(dir, f.File)
		if _, err := os.Stat(localPath); err == nil {
			continue
		}
		if err := downloadFile(f.URL, localPath); err != nil {
			return fmt.Errorf("downloading %s: %w", f.ID, err)
		}
	}
	return nil
}

// httpClient is shared by downloads. allCountries.zip is several hundred MB.
var httpClient = &http.Client{
	Timeout: 30 * time.Minute,
}

func downloadFile(url, path string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}

	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(path) // partial file
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}

	// Close explicitly so flush errors are reported.
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	success = true
	return nil
}
