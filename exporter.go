package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/internal/scan"
	"github.com/rtm0/eos/internal/vm"
)

var cfg = viper.New()

var root = &cobra.Command{
	Use:   "eos2vm",
	Short: "Export HDF-EOS grid fields to Victoria Metrics.",
	Long: `eos2vm reads fields of an HDF-EOS grid one slab at a time, locates every
cell and inserts the values into Victoria Metrics.

Every flag can also be set with an environment variable named EOS2VM_<flag>,
or in a configuration file given with --config.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	RunE:              func(*cobra.Command, []string) error { return run() },
}

func init() {
	flags := root.Flags()
	flags.String("config", "", "path to a configuration file")
	flags.String("file", "", "path to an HDF-EOS grid file")
	flags.String("grid", "", "name of the grid to export")
	flags.StringSlice("fields", nil, "names of the grid fields to export; all must have the same shape")
	flags.String("timestamp", "", "RFC 3339 time stamped on every record. Default: the file modification time")
	flags.Int("concurrency", runtime.NumCPU(), "number of concurrent requests to Victoria Metrics")
	flags.Int("recsPerInsert", 500, "number of records sent to VM in one batch")
	flags.String("vmInsertUrl", "http://localhost:8428/write", "Victoria Metrics insert API URL. Default: InfluxDB line protocol v2")
	flags.String("metricPrefix", "eos", "prefix of every metric name")
	flags.Int("retries", 5, "number of times a failed insert is retried")
	flags.Bool("verbose", false, "log debug messages")

	cfg.SetEnvPrefix("EOS2VM")
	cfg.AutomaticEnv()
	if err := cfg.BindPFlags(flags); err != nil {
		panic(err)
	}
}

// setConfig reads in the configuration file, if there is one.
func setConfig() error {
	if path := cfg.GetString("config"); path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("problem reading configuration file: %w", err)
		}
	}
	return nil
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.GetBool("verbose") {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func timestamp(file string) (time.Time, error) {
	if s := cfg.GetString("timestamp"); s != "" {
		return time.Parse(time.RFC3339, s)
	}
	fi, err := os.Stat(file)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func run() error {
	logger := newLogger()
	file, grid := cfg.GetString("file"), cfg.GetString("grid")
	fields := cfg.GetStringSlice("fields")
	concurrency := max(cfg.GetInt("concurrency"), 1)
	recsPerInsert := max(cfg.GetInt("recsPerInsert"), 1)
	if file == "" || grid == "" || len(fields) == 0 {
		return fmt.Errorf("--file, --grid and --fields are required")
	}

	ts, err := timestamp(file)
	if err != nil {
		return fmt.Errorf("could not determine the record time stamp: %w", err)
	}

	vmCli, err := vm.NewClient(logger, cfg.GetString("vmInsertUrl"), concurrency,
		cfg.GetString("metricPrefix"), fields, cfg.GetInt("retries"))
	if err != nil {
		return fmt.Errorf("could not create new VM client: %w", err)
	}

	s, err := scan.NewScanner(file, grid, fields, ts, eos.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("could not create a grid scanner: %w", err)
	}
	defer s.Close()
	logger.Info("Grid summary", s.Summary()...)

	recsCh := make(chan []scan.Record)
	progressCh := make(chan int)
	var failed atomic.Int64
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for recs := range recsCh {
				n := len(recs)
				for i := 0; i < n; i += recsPerInsert {
					begin := i
					limit := min(begin+recsPerInsert, n)
					if err := vmCli.Insert(recs[begin:limit]); err != nil {
						logger.Error("Could not insert records", "err", err)
						failed.Add(int64(limit - begin))
					}
				}
				progressCh <- n * len(fields)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		var inserted, total float64
		total = float64(s.TotalRecCount())
		start := time.Now()
		for n := range progressCh {
			inserted += float64(n)
			percent := fmt.Sprintf("%.2f%%", 100*inserted/total)
			duration := time.Since(start).Round(1 * time.Second)
			logger.Info("progress", "inserted", percent, "in", duration)
		}
	}()
	for s.Scan() {
		recsCh <- s.Records()
	}
	close(recsCh)
	wg.Wait()
	close(progressCh)
	<-done

	if err := s.Err(); err != nil {
		return fmt.Errorf("scan stopped: %w", err)
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d records were not inserted", n)
	}
	return nil
}

func main() {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
