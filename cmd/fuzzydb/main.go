package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/config"
	"github.com/seanblong/fuzzydb/internal/diagram"
	"github.com/seanblong/fuzzydb/internal/engine"
	"github.com/seanblong/fuzzydb/internal/ingest"
	"github.com/seanblong/fuzzydb/internal/orchestrator"
	"github.com/seanblong/fuzzydb/internal/persist"
	"github.com/seanblong/fuzzydb/internal/tokenizer"
	"github.com/seanblong/fuzzydb/pkg/models"
)

func main() {
	fs := pflag.NewFlagSet("fuzzydb", pflag.ExitOnError)
	diagramFlag := fs.Bool("diagram", false, "write the backbone topology as a Graphviz DOT file alongside the result CSV")
	saveIndexPath := fs.String("save-index", "", "write a persisted engine snapshot after indexing")
	loadIndexPath := fs.String("load-index", "", "load a persisted engine snapshot instead of rebuilding the index")

	bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(positionalConfigPath(os.Args[1:]), fs)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("failed to load configuration")
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := bootstrap.Level(level)

	referenceTable, err := ingest.LoadTable(cfg.Data.ReferenceTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load reference table")
	}
	queryTable, err := ingest.LoadTable(cfg.Data.MessyTable)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load messy table")
	}

	if len(cfg.RegexPreprocessing) > 0 {
		if counts, err := ingest.PreClean(referenceTable, cfg.RegexPreprocessing); err != nil {
			log.Fatal().Err(err).Msg("regex pre-cleaning of reference table failed")
		} else {
			log.Debug().Interface("matches", counts).Msg("pre-cleaned reference table")
		}
		if counts, err := ingest.PreClean(queryTable, cfg.RegexPreprocessing); err != nil {
			log.Fatal().Err(err).Msg("regex pre-cleaning of messy table failed")
		} else {
			log.Debug().Interface("matches", counts).Msg("pre-cleaned messy table")
		}
	}

	tok := tokenizer.NewDefault()

	var bb *backbone.Backbone
	if *loadIndexPath != "" {
		bb, referenceTable = loadPersistedEngine(log, *loadIndexPath)
	} else {
		bb, err = backbone.New(cfg.Backbone, log)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid backbone configuration")
		}

		e := engine.New(bb, tok, log)
		e.BuildIndex(referenceTable)

		if *saveIndexPath != "" {
			savePersistedEngine(log, *saveIndexPath, bb, referenceTable)
		}
	}

	if *diagramFlag {
		path := filepath.Join(cfg.OperatingDir, "backbone.dot")
		if err := diagram.WriteFile(path, bb); err != nil {
			log.Fatal().Err(err).Msg("failed to write backbone diagram")
		}
		log.Info().Str("path", path).Msg("wrote backbone diagram")
	}

	o := orchestrator.New(bb, tok, cfg.DiffPercent, log)
	tuples := o.Run(referenceTable, queryTable)

	resultPath := filepath.Join(cfg.OperatingDir, "results.csv")
	if err := orchestrator.WriteResultCSV(resultPath, tuples); err != nil {
		log.Fatal().Err(err).Msg("failed to write result csv")
	}
	log.Info().Str("output", resultPath).Int("rows", len(tuples)).Msg("fuzzydb run complete")
}

// positionalConfigPath returns the first argument that is not a flag, per
// spec.md §6's `fuzzydb <configuration-path>` CLI surface.
func positionalConfigPath(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

func loadPersistedEngine(log zerolog.Logger, path string) (*backbone.Backbone, *models.Table) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open persisted engine snapshot")
	}
	defer f.Close()

	bb, referenceTable, err := persist.Load(f)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load persisted engine snapshot")
	}
	return bb, referenceTable
}

func savePersistedEngine(log zerolog.Logger, path string, bb *backbone.Backbone, referenceTable *models.Table) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine snapshot file")
	}
	defer f.Close()

	if err := persist.Save(f, bb, referenceTable); err != nil {
		log.Fatal().Err(err).Msg("failed to save engine snapshot")
	}
}
