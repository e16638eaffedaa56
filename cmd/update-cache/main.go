// Command update-cache builds the gazetteer index from a geonames dump.
//
// Usage:
//
//	go run ./cmd/update-cache [-config config.yaml] [-download] [-skip-validate]
//
// This reads allCountries.zip (or allCountries.txt) and featureCodes_en.txt
// from the configured data directory and writes the index to
// geonames_index_path. Pass -download to fetch missing files from
// download.geonames.org first. The written index is reloaded and checked
// against well-known places unless the build was restricted to a subset of
// location types.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/kinodata/geocode"
	"github.com/kinodata/geocode/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	download := flag.Bool("download", false, "download missing geonames files first")
	skipValidate := flag.Bool("skip-validate", false, "do not validate the written index")
	flag.Parse()

	if err := run(*configPath, *download, !*skipValidate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, download, validate bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if download {
		logger.Info("Downloading geonames data", zap.String("dir", cfg.Gazetteer.DataDir))
		if err := geocode.DownloadDataSets(cfg.Gazetteer.DataDir); err != nil {
			return err
		}
	}

	opts, err := cfg.Gazetteer.BuildOptions()
	if err != nil {
		return err
	}
	opts = append(opts, geocode.WithLogger(logger))

	entries, stats, err := geocode.Build(ctx, geocode.NewGeonamesDump(cfg.Gazetteer.DataDir), opts...)
	if err != nil {
		return fmt.Errorf("building gazetteer: %w", err)
	}

	logger.Info("Writing geonames index",
		zap.String("path", cfg.Gazetteer.IndexPath),
		zap.Int("entries", stats.Entries),
		zap.Int("unlabelled", stats.Unlabelled),
		zap.Int("flags", stats.FlagsAdded))
	if err := geocode.WriteIndex(cfg.Gazetteer.IndexPath, entries); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	if validate && len(cfg.Gazetteer.AllowedLocationTypes) == 0 {
		logger.Info("Validating index")
		r, err := geocode.LoadResolver(cfg.Gazetteer.IndexPath, geocode.WithResolverLogger(logger))
		if err != nil {
			return err
		}
		if err := geocode.ValidateIndex(r, geocode.DefaultMinIndexEntries); err != nil {
			return fmt.Errorf("index validation failed: %w", err)
		}
	}

	fmt.Println("Index regenerated successfully.")
	fmt.Printf("Run 'bzip2 -f %s' to compress the index.\n", cfg.Gazetteer.IndexPath)
	return nil
}
