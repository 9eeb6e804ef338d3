package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rharvest/reddit-harvester/internal/cleaner"
	"github.com/rharvest/reddit-harvester/internal/collector"
	"github.com/rharvest/reddit-harvester/internal/config"
	"github.com/rharvest/reddit-harvester/internal/dashboard"
	"github.com/rharvest/reddit-harvester/internal/domain"
	"github.com/rharvest/reddit-harvester/internal/ingest"
	"github.com/rharvest/reddit-harvester/internal/pipeline"
	"github.com/rharvest/reddit-harvester/internal/retry"
	"github.com/rharvest/reddit-harvester/internal/storage"
)

type flags struct {
	subreddit    string
	limit        int
	sort         string
	timeFilter   string
	commentSort  string
	commentLimit int
	query        string
	searchSort   string

	mode        string
	storageKind string
	dataDir     string

	minScore  int
	cleanText bool
	startDate string
	endDate   string

	targetsFile  string
	keywordsFile string

	serve bool
	port  string

	logLevel string
	minDelay time.Duration
	retries  int
}

func parseFlags() *flags {
	f := &flags{}
	pflag.StringVar(&f.subreddit, "subreddit", "MachineLearning", "subreddit to harvest")
	pflag.IntVar(&f.limit, "limit", 10, "maximum number of posts to fetch")
	pflag.StringVar(&f.sort, "sort", "hot", "post sort: hot, new, top, rising, controversial")
	pflag.StringVar(&f.timeFilter, "time", "week", "time filter for top/controversial: hour, day, week, month, year, all")
	pflag.StringVar(&f.commentSort, "comment-sort", "best", "comment sort: best, top, new, controversial, old, qa")
	pflag.IntVar(&f.commentLimit, "comment-limit", 0, "maximum comments per post, 0 for all")
	pflag.StringVar(&f.query, "query", "", "search the subreddit for this text instead of reading a listing")
	pflag.StringVar(&f.searchSort, "search-sort", "relevance", "search result order: relevance, hot, new, top, comments")
	pflag.StringVar(&f.mode, "mode", "", "collector mode: api, public or mock (default from COLLECTOR_MODE)")
	pflag.StringVar(&f.storageKind, "storage", "sqlite", "storage backend: sqlite, json or csv")
	pflag.StringVar(&f.dataDir, "data-dir", "data", "directory for data storage")
	pflag.IntVar(&f.minScore, "min-score", 0, "minimum score for posts and comments")
	pflag.BoolVar(&f.cleanText, "clean-text", false, "enable text cleaning")
	pflag.StringVar(&f.startDate, "start-date", "", "keep records on or after this date (YYYY-MM-DD or RFC 3339)")
	pflag.StringVar(&f.endDate, "end-date", "", "keep records on or before this date (YYYY-MM-DD or RFC 3339)")
	pflag.StringVar(&f.targetsFile, "targets", "", "CSV of subreddit,min_score pairs overriding --subreddit")
	pflag.StringVar(&f.keywordsFile, "keywords", "", "CSV of keywords; posts must mention at least one")
	pflag.BoolVar(&f.serve, "serve", false, "serve the dashboard after harvesting")
	pflag.StringVar(&f.port, "port", "8080", "dashboard port")
	pflag.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pflag.DurationVar(&f.minDelay, "min-delay", time.Second, "minimum delay between remote calls")
	pflag.IntVar(&f.retries, "retries", 3, "attempts for transient fetch failures")
	pflag.Parse()
	return f
}

func main() {
	f := parseFlags()
	logger := newLogger(f.logLevel)
	if err := run(f, logger); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
	logger.Info("pipeline completed")
}

func run(f *flags, logger *slog.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	mode := collector.Mode(f.mode)
	if mode == "" {
		mode = collector.Mode(cfg.Mode)
	}

	col, err := collector.New(mode, cfg, f.minDelay, logger)
	if err != nil {
		return err
	}
	logger.Info("collector initialized", "mode", string(mode))

	targets, err := loadTargets(f)
	if err != nil {
		return err
	}

	store, err := openStorage(f, targets, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	normalizer, err := cleaner.NewNormalizer(cleaner.NormalizerOptions{
		StripURLs:         f.cleanText,
		StripSpecialChars: f.cleanText,
		StripStopwords:    f.cleanText,
		Lowercase:         f.cleanText,
	})
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Targets:      targets,
		Limit:        f.limit,
		Sort:         domain.PostSort(f.sort),
		Time:         domain.TimeFilter(f.timeFilter),
		CommentSort:  domain.CommentSort(f.commentSort),
		CommentLimit: f.commentLimit,
		Query:        f.query,
		SearchSort:   domain.SearchSort(f.searchSort),
		CleanText:    f.cleanText,
	}
	if pflag.Lookup("min-score").Changed {
		minScore := f.minScore
		opts.MinScore = &minScore
	}
	if opts.StartDate, err = parseDate(f.startDate); err != nil {
		return err
	}
	if opts.EndDate, err = parseDate(f.endDate); err != nil {
		return err
	}
	if f.keywordsFile != "" {
		if opts.Keywords, err = ingest.LoadKeywords(f.keywordsFile); err != nil {
			return err
		}
	}

	runner := pipeline.New(col, store, cleaner.New(normalizer, logger), retry.Policy{
		MaxAttempts: f.retries,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
	}, logger)
	if err := runner.Run(ctx, opts); err != nil {
		return err
	}

	if f.serve {
		return dashboard.NewServer(store, logger).Start(":" + f.port)
	}
	return nil
}

func loadTargets(f *flags) ([]domain.Target, error) {
	if f.targetsFile != "" {
		targets, err := ingest.LoadTargets(f.targetsFile)
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("no valid targets in %s", f.targetsFile)
		}
		return targets, nil
	}
	return []domain.Target{{Subreddit: f.subreddit}}, nil
}

func openStorage(f *flags, targets []domain.Target, logger *slog.Logger) (storage.Backend, error) {
	// Single-target runs keep the original per-subreddit layout; multi-
	// target runs share one snapshot.
	name := "harvest"
	if len(targets) == 1 {
		name = strings.ToLower(targets[0].Subreddit)
	}
	opts := storage.Options{Logger: logger}
	if storage.Kind(f.storageKind) == storage.KindSQLite {
		opts.DBPath = filepath.Join(f.dataDir, name+".db")
		if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
			return nil, err
		}
	} else {
		opts.DataDir = filepath.Join(f.dataDir, name)
	}
	return storage.New(storage.Kind(f.storageKind), opts)
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC 3339", value)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
