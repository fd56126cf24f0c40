package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"botcheck/internal/api"
	"botcheck/internal/cache"
	"botcheck/internal/classify"
	"botcheck/internal/cmdlog"
	"botcheck/internal/config"
	"botcheck/internal/detect"
	"botcheck/internal/export"
	"botcheck/internal/features"
	"botcheck/internal/logging"
	"botcheck/internal/metrics"
	"botcheck/internal/store/reportdb"
	"botcheck/internal/textstats"
	"botcheck/internal/theme"
	"botcheck/internal/xclient"
)

const defaultConfigPath = "./botcheck.yaml"

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	var run func([]string) error
	switch cmd {
	case "init":
		run = cmdInit
	case "analyze":
		run = cmdAnalyze
	case "serve":
		run = cmdServe
	case "history":
		run = cmdHistory
	case "export":
		run = cmdExport
	case "vectors":
		run = cmdVectors
	case "schema":
		run = cmdSchema
	default:
		printHelp()
		return
	}
	if err := run(os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printHelp() {
	theme.PrintBanner(os.Stdout)
	fmt.Println("Usage: botcheck <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./botcheck.yaml")
	fmt.Println("  analyze     Classify an X account as bot or not")
	fmt.Println("  serve       Run the HTTP API")
	fmt.Println("  history     List stored reports")
	fmt.Println("  export      Write a stored report as PDF")
	fmt.Println("  vectors     Dump stored feature vectors as CSV")
	fmt.Println("  schema      Print the classifier's feature columns")
}

// loadConfig reads path, falling back to defaults plus env when the file
// does not exist.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		if err := cfg.ResolveEnv(); err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}
	return cfg, err
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	log := logging.New(level, os.Stderr)
	if err != nil {
		log.Warn().Err(err).Msg("using info level")
	}
	return log
}

// runtime bundles what the analyze and serve commands share.
type runtime struct {
	service *detect.Service
	closers []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfg config.Config, log zerolog.Logger) (*runtime, error) {
	rt := &runtime{}
	if cfg.Credentials.BearerToken == "" {
		log.Warn().Msg("missing X_BEARER_TOKEN; API calls will fail")
	}
	var fetcher xclient.Fetcher = xclient.NewHTTPClient(cfg.Credentials.BearerToken, cfg.API, log)

	var store cache.Store = cache.NewMemoryStore(256)
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable; using in-process cache")
		} else {
			store = rs
			rt.closers = append(rt.closers, rs.Close)
		}
	}
	if cfg.Cache.TTLSeconds > 0 {
		fetcher = xclient.NewCached(fetcher, store, time.Duration(cfg.Cache.TTLSeconds)*time.Second, log)
	}

	predictor, err := classify.Load(cfg.Model, features.Default)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, predictor.Close)

	analyzer := textstats.New(detect.AnalyzerOptions(cfg.Analysis), nil, log)
	rt.service = detect.NewService(fetcher, classify.New(predictor, features.Default), analyzer, cfg.Analysis, log)
	return rt, nil
}

func cmdInit(args []string) error {
	out := flag.NewFlagSet("init", flag.ExitOnError)
	path := out.String("path", defaultConfigPath, "path to write config")
	_ = out.Parse(args)
	if err := config.Save(*path, config.Default()); err != nil {
		return err
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner(os.Stdout)
	fmt.Println("Config written to:", abs)
	return nil
}

func cmdAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	handle := fs.String("handle", "", "X handle to analyze, with or without @")
	count := fs.Int("count", 0, "number of recent posts to analyze (default from config)")
	pdf := fs.Bool("pdf", false, "also export the report as PDF")
	out := fs.String("out", "", "PDF path (default report.dir/report.filename)")
	save := fs.Bool("save", false, "store the report in history")
	_ = fs.Parse(args)
	if *handle == "" && fs.NArg() > 0 {
		*handle = fs.Arg(0)
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	return cmdlog.Run(log, "analyze", func() error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		rt, err := buildRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		n := *count
		if n == 0 {
			n = cfg.Analysis.DefaultPostCount
		}
		res := rt.service.Evaluate(ctx, *handle, n)
		if res.Error != "" {
			return errors.New(res.Error)
		}
		rep := res.Report
		if err := export.WriteTable(os.Stdout, rep.Metrics()); err != nil {
			return err
		}
		fmt.Printf("\nPrediction for @%s: %s\n", rep.Handle, rep.Prediction)

		if *pdf {
			path := *out
			if path == "" {
				path = filepath.Join(cfg.Report.Dir, cfg.Report.Filename)
			}
			written, err := export.SavePDF(path, rep.Metrics())
			if err != nil {
				return err
			}
			fmt.Println("PDF written to:", written)
		}
		if *save {
			db, err := reportdb.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.PutReport(ctx, *rep); err != nil {
				return err
			}
			fmt.Println("Saved report:", rep.ID)
		}
		return nil
	})
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	addr := fs.String("addr", "", "listen address (default server.addr)")
	_ = fs.Parse(args)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	return cmdlog.Run(log, "serve", func() error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		rt, err := buildRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		var store api.ReportStore
		if cfg.Storage.DBPath != "" {
			db, err := reportdb.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			store = db
		}
		metrics.StartServer(cfg.Metrics.Addr, log)
		listen := *addr
		if listen == "" {
			listen = cfg.Server.Addr
		}
		srv := api.NewServer(rt.service, store, cfg.Analysis.DefaultPostCount, log)
		return srv.Start(ctx, listen)
	})
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	limit := fs.Int("limit", 20, "max reports")
	handle := fs.String("handle", "", "only this handle")
	_ = fs.Parse(args)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	return cmdlog.Run(log, "history", func() error {
		db, err := reportdb.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		list, err := db.ListReports(context.Background(), detect.NormalizeHandle(*handle), *limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCreated\tHandle\tBot Score\tPrediction")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t@%s\t%.2f\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Handle, s.BotScore, s.Prediction)
		}
		return tw.Flush()
	})
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	id := fs.String("id", "", "report id")
	out := fs.String("out", "", "PDF path (default report.dir/report.filename)")
	_ = fs.Parse(args)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	return cmdlog.Run(log, "export", func() error {
		if *id == "" {
			return errors.New("-id is required")
		}
		db, err := reportdb.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		rep, err := db.GetReport(context.Background(), *id)
		if err != nil {
			return err
		}
		path := *out
		if path == "" {
			path = filepath.Join(cfg.Report.Dir, cfg.Report.Filename)
		}
		written, err := export.SavePDF(path, rep.Metrics())
		if err != nil {
			return err
		}
		fmt.Println("PDF written to:", written)
		return nil
	})
}

// parseTime accepts RFC 3339 timestamps or bare dates (UTC midnight). An
// empty value returns def.
func parseTime(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func cmdVectors(args []string) error {
	fs := flag.NewFlagSet("vectors", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	schemaName := fs.String("schema", features.Default.Name(), "feature schema of the stored rows")
	since := fs.String("since", "", "first report time, inclusive (RFC 3339 or YYYY-MM-DD)")
	until := fs.String("until", "", "last report time, exclusive (default now)")
	columns := fs.String("columns", "", "comma-separated fields to keep (default all)")
	out := fs.String("out", "", "CSV path (default stdout)")
	_ = fs.Parse(args)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	return cmdlog.Run(log, "vectors", func() error {
		if *schemaName != features.Default.Name() {
			return fmt.Errorf("unknown schema %q (have %s)", *schemaName, features.Default.Name())
		}
		start, err := parseTime(*since, time.Unix(0, 0).UTC())
		if err != nil {
			return err
		}
		end, err := parseTime(*until, time.Now().UTC())
		if err != nil {
			return err
		}
		if !end.After(start) {
			return errors.New("-until must be after -since")
		}
		var cols []string
		if *columns != "" {
			for _, c := range strings.Split(*columns, ",") {
				cols = append(cols, strings.TrimSpace(c))
			}
		}

		db, err := reportdb.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		rows, labels, err := db.LoadVectors(context.Background(), *schemaName, start, end)
		if err != nil {
			return err
		}
		w := os.Stdout
		if *out != "" {
			f, err := os.Create(*out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := export.WriteVectorsCSV(w, features.Default, cols, rows, labels); err != nil {
			return err
		}
		log.Info().Int("rows", len(rows)).Str("schema", *schemaName).Msg("vectors_exported")
		return nil
	})
}

func cmdSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	_ = fs.Parse(args)
	fmt.Printf("# %s (%d fields)\n", features.Default.Name(), features.Default.Len())
	for i, name := range features.Default.Fields() {
		fmt.Printf("%2d  %s\n", i, name)
	}
	return nil
}
