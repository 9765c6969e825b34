// Package engine orchestrates the build pipeline: fetch every source, run
// each list through classify/validate/translate on a bounded worker pool,
// then assemble the output in source order.
package engine

import (
	"context"
	"crypto/rand"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/itsrody/Brave/config"
	"github.com/itsrody/Brave/fetch"
	"github.com/itsrody/Brave/generator"
	"github.com/itsrody/Brave/hosts"
	"github.com/itsrody/Brave/parser"
	"github.com/itsrody/Brave/patterns"
	"github.com/itsrody/Brave/translator"
	"github.com/itsrody/Brave/validator"
)

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	Printf(format string, v ...any)
}

// ListStats counts what happened to one source list during a run.
type ListStats struct {
	Name         string
	Skipped      bool
	Lines        int
	Filters      int
	Translated   int
	CommentedOut int
	Dropped      int
	Errors       int
}

// RunStats summarizes one full pipeline run.
type RunStats struct {
	RunID      string
	Started    time.Time
	Finished   time.Time
	OutputFile string
	RuleCount  int
	Lists      []ListStats
}

// Engine drives one or more builds over a shared immutable pattern database.
type Engine struct {
	cfg     *config.Config
	db      *patterns.Database
	fetcher *fetch.Fetcher
	logger  Logger
	entropy *ulid.MonotonicEntropy
}

// New creates an Engine. A nil logger falls back to the standard logger.
func New(cfg *config.Config, db *patterns.Database, fetcher *fetch.Fetcher, logger Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		cfg:     cfg,
		db:      db,
		fetcher: fetcher,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Run executes one complete build: fetch, process, assemble, write. Lists
// run in parallel but results are collected in source order, so the output
// is independent of scheduling. Only the final write can fail.
func (e *Engine) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		RunID:      ulid.MustNew(ulid.Now(), e.entropy).String(),
		Started:    time.Now().UTC(),
		OutputFile: e.cfg.Settings.OutputFile,
	}
	e.logger.Printf("run %s: fetching %d lists", stats.RunID, len(e.cfg.FilterLists))

	sources := make([]fetch.Source, len(e.cfg.FilterLists))
	for i, fl := range e.cfg.FilterLists {
		sources[i] = fetch.Source{Name: fl.Name, URL: fl.URL, Path: fl.Path}
	}
	fetched := e.fetcher.FetchAll(ctx, sources)

	workers := e.cfg.Settings.MaxWorkers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	strategy := translator.Strategy(e.cfg.Settings.TranslationStrategy)

	processed := make([][]*parser.Rule, len(fetched))
	listStats := make([]ListStats, len(fetched))
	permits := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range fetched {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			permits <- struct{}{}
			defer func() { <-permits }()

			result := fetched[i]
			if !result.OK {
				e.logger.Printf("run %s: skipping '%s', no content available", stats.RunID, result.Name)
				listStats[i] = ListStats{Name: result.Name, Skipped: true}
				return
			}
			content := result.Content
			if e.cfg.FilterLists[i].Format == config.FormatHosts {
				content = hosts.Convert(content)
			}
			processed[i], listStats[i] = e.processList(result.Name, content, strategy)
		}(i)
	}
	wg.Wait()

	gen := generator.New(e.cfg.Settings.OutputFile, e.logger)
	for _, rules := range processed {
		for _, rule := range rules {
			gen.Add(rule)
		}
	}
	if err := gen.Write(generator.Header{
		Title:    e.cfg.Settings.ListTitle,
		Version:  e.cfg.Settings.ListVersion,
		Homepage: e.cfg.Settings.Homepage,
		BuildID:  stats.RunID,
	}); err != nil {
		return nil, err
	}

	stats.RuleCount = gen.RuleCount()
	stats.Lists = listStats
	stats.Finished = time.Now().UTC()
	e.logger.Printf("run %s: %d unique rules in %v",
		stats.RunID, stats.RuleCount, stats.Finished.Sub(stats.Started).Round(time.Millisecond))
	return stats, nil
}

// processList runs one list's lines through the pipeline sequentially, so
// line numbers stay meaningful in diagnostics.
func (e *Engine) processList(name, content string, strategy translator.Strategy) ([]*parser.Rule, ListStats) {
	stats := ListStats{Name: name}
	rules := parser.ParseList(name, content)
	for _, rule := range rules {
		validator.Validate(rule, e.db)
		translator.Translate(rule, e.db, strategy)

		stats.Lines++
		switch rule.Kind {
		case parser.KindFilter:
			stats.Filters++
		case parser.KindError:
			stats.Errors++
			e.logger.Printf("run: parse error in %s:%d: %s", name, rule.LineNumber, rule.Message)
		}
		switch rule.TranslationStatus {
		case parser.TranslationTranslated:
			stats.Translated++
		case parser.TranslationCommentedOut:
			stats.CommentedOut++
		case parser.TranslationDropped:
			stats.Dropped++
		}
	}
	return rules, stats
}
