// Command scoutadmin runs offline maintenance against the record store
// and the full-text index: stats, optimize, trim and reindex. It only
// needs the storage configuration, not an API key.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/config"
	"github.com/user/topic-scout/internal/index"
	"github.com/user/topic-scout/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var dbCfg config.DBConfig
	if err := envconfig.Process("", &dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to load db config")
	}
	var idxCfg config.IndexConfig
	if err := envconfig.Process("", &idxCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to load index config")
	}

	st, err := store.NewSQLiteStore(&dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer st.Close()

	idx, err := index.Open(idxCfg.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open full-text index")
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "stats":
		err = runStats(ctx, st, idx)
	case "optimize":
		err = runOptimize(ctx, st)
	case "trim":
		err = runTrim(ctx, st, idx, os.Args[2:])
	case "reindex":
		err = runReindex(ctx, st, idx)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scoutadmin <stats|optimize|trim|reindex> [flags]")
	fmt.Fprintln(os.Stderr, "  stats              print record, history and index counts")
	fmt.Fprintln(os.Stderr, "  optimize           vacuum the record store")
	fmt.Fprintln(os.Stderr, "  trim -keep N       keep the newest N records, drop the rest")
	fmt.Fprintln(os.Stderr, "  reindex            rebuild the full-text index from the store")
}

func runStats(ctx context.Context, st store.Store, idx *index.Index) error {
	videos, err := st.CountVideos(ctx)
	if err != nil {
		return err
	}
	entries, err := st.ListSearches(ctx)
	if err != nil {
		return err
	}
	docs, err := idx.DocCount()
	if err != nil {
		return err
	}

	fmt.Printf("videos:     %d\n", videos)
	fmt.Printf("searches:   %d\n", len(entries))
	fmt.Printf("index docs: %d\n", docs)
	return nil
}

func runOptimize(ctx context.Context, st store.Store) error {
	if err := st.Vacuum(ctx); err != nil {
		return err
	}
	fmt.Println("database vacuumed")
	return nil
}

func runTrim(ctx context.Context, st store.Store, idx *index.Index, args []string) error {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	keep := fs.Int("keep", 1000, "number of newest records to keep")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keep <= 0 {
		return fmt.Errorf("-keep must be positive")
	}

	removed, err := st.RetentionTrim(ctx, *keep)
	if err != nil {
		return err
	}
	for _, id := range removed {
		if err := idx.Delete(id); err != nil {
			log.Error().Err(err).Str("videoID", id).Msg("Failed to remove record from index")
		}
	}
	if len(removed) > 0 {
		if err := st.Vacuum(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("removed %d records\n", len(removed))
	return nil
}

func runReindex(ctx context.Context, st store.Store, idx *index.Index) error {
	records, err := st.AllVideos(ctx)
	if err != nil {
		return err
	}
	if err := idx.Rebuild(records); err != nil {
		return err
	}
	fmt.Printf("reindexed %d records\n", len(records))
	return nil
}
