// Command geocode resolves place names against a built gazetteer index.
//
// Usage:
//
//	geocode [-config config.yaml] [-all] [-upsert] name...
//
// Names are read from the arguments, or one per line from stdin when no
// arguments are given. Each result is printed as a JSON line. With -upsert
// the chosen place is also stored in PostgreSQL and its entity id printed.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/kinodata/geocode"
	"github.com/kinodata/geocode/config"
	"github.com/kinodata/geocode/locations"
	"github.com/kinodata/geocode/locations/postgres"
)

type result struct {
	Query      string               `json:"query"`
	Match      *geocode.PlaceEntry  `json:"match,omitempty"`
	Candidates []geocode.PlaceEntry `json:"candidates,omitempty"`
	EntityID   int64                `json:"entity_id,omitempty"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	all := flag.Bool("all", false, "print every candidate, not only the chosen one")
	upsert := flag.Bool("upsert", false, "store the chosen places in PostgreSQL")
	flag.Parse()

	if err := run(*configPath, *all, *upsert, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, all, upsert bool, args []string, in io.Reader, out io.Writer) error {
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

	resolver, err := geocode.LoadResolver(cfg.Gazetteer.IndexPath, geocode.WithResolverLogger(logger))
	if err != nil {
		return err
	}

	var cache *locations.Cache
	if upsert {
		var closeDB func() error
		cache, closeDB, err = openCache(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB()
		defer func() {
			s := cache.Stats()
			logger.Info("Location cache stats",
				zap.Int64("memo_hits", s.MemoHits),
				zap.Int64("sink_hits", s.SinkHits),
				zap.Int64("created", s.Created))
		}()
	}

	enc := json.NewEncoder(out)
	resolve := func(name string) error {
		res := result{Query: name}
		candidates := resolver.Decode(name)
		if all {
			res.Candidates = candidates
		}
		if match, ok := geocode.Choose(candidates); ok {
			res.Match = &match
			if cache != nil {
				id, err := cache.GetOrCreate(ctx, match)
				if err != nil {
					return err
				}
				res.EntityID = id
			}
		} else {
			logger.Debug("No gazetteer match", zap.String("query", name))
		}
		return enc.Encode(res)
	}

	if len(args) > 0 {
		for _, name := range args {
			if err := resolve(name); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := resolve(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*locations.Cache, func() error, error) {
	db, err := postgres.Open(ctx, cfg.Database.Postgres().DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(db, logger); err != nil {
		db.Close()
		return nil, nil, err
	}

	sink := postgres.NewSink(db, logger)
	opts := []locations.Option{locations.WithLogger(logger)}
	if rdb := locations.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); rdb != nil {
		instance, err := sink.InstanceID(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		key := locations.ScopedRedisKey(cfg.Redis.Key, instance)
		logger.Debug("Sharing location ids through redis", zap.String("key", key))
		opts = append(opts, locations.WithSharedMemo(locations.NewRedisMemo(rdb, key)))
	}
	return locations.NewCache(sink, opts...), db.Close, nil
}
