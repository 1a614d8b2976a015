package runner

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	envutil "github.com/projectdiscovery/utils/env"
	updateutils "github.com/projectdiscovery/utils/update"

	"github.com/GuangYu-yu/edgerank/pkg/types"
	"github.com/GuangYu-yu/edgerank/pkg/version"
)

var au = aurora.New(aurora.WithColors(true))

var (
	RangesURLEnv           = envutil.GetEnvOrDefault("EDGERANK_CIDR_URL", "")
	PingConcurrencyEnv     = envutil.GetEnvOrDefault("EDGERANK_PING_CONCURRENCY", "")
	DownloadConcurrencyEnv = envutil.GetEnvOrDefault("EDGERANK_DOWNLOAD_CONCURRENCY", "")
)

// Options contains the configuration options for the measurement run.
type Options struct {
	Ranges    goflags.StringSlice
	RangeFile string
	RangesURL string

	TargetHost   string
	TargetPort   int
	DownloadPath string

	PingConcurrency int
	PingCount       int
	PingTimeoutMs   int
	HTTPing         bool
	HTTPingCode     int
	Colos           goflags.StringSlice

	MaxLatencyMs  int
	MaxLossRate   string
	ShortlistSize int

	DownloadConcurrency int
	DownloadTimeoutSec  int
	MinTrustedSec       int
	MinTrustedMB        int
	MaxDownloadMB       int

	Output  string
	JSON    bool
	Silent  bool
	NoColor bool

	Verbose            bool
	Version            bool
	DisableUpdateCheck bool
	DeadlineSec        int
	Seed               string
	SampleCap          int
	EnumLimit          int
	Alpha              string
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}

	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`edgerank measures latency and download throughput against the edges of a CDN and ranks the best performing addresses.`)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringSliceVarP(&options.Ranges, "ip-ranges", "ip", nil, "addresses or CIDR ranges to test (comma separated)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVarP(&options.RangeFile, "file", "f", "", "file with addresses or CIDR ranges, one per line"),
		flagSet.StringVarP(&options.RangesURL, "cidr-url", "cu", RangesURLEnv, "url serving CDN ranges as json or plain text"),
	)

	flagSet.CreateGroup("target", "Target",
		flagSet.StringVar(&options.TargetHost, "host", types.DefaultTargetHost, "hostname used for SNI and the Host header"),
		flagSet.IntVarP(&options.TargetPort, "port", "p", types.DefaultTargetPort, "port to measure against"),
		flagSet.StringVar(&options.DownloadPath, "path", types.DefaultDownloadPath, "path requested during download tests"),
	)

	flagSet.CreateGroup("probe", "Probe",
		flagSet.IntVarP(&options.PingConcurrency, "ping-concurrency", "n", envInt(PingConcurrencyEnv, 0), "concurrent latency probes (0 = scale with cpu count)"),
		flagSet.IntVarP(&options.PingCount, "ping-count", "c", types.DefaultPingCount, "latency probes per candidate"),
		flagSet.IntVarP(&options.PingTimeoutMs, "ping-timeout", "t", 1000, "per probe timeout in milliseconds"),
		flagSet.BoolVar(&options.HTTPing, "httping", false, "probe with HTTP HEAD requests instead of TCP connects"),
		flagSet.IntVar(&options.HTTPingCode, "httping-code", 0, "accept only this status during HTTP probing (0 = 200, 301 or 302)"),
		flagSet.StringSliceVar(&options.Colos, "colo", nil, "restrict results to these datacenter codes (comma separated)", goflags.CommaSeparatedStringSliceOptions),
	)

	flagSet.CreateGroup("filter", "Filter",
		flagSet.IntVarP(&options.MaxLatencyMs, "latency-max", "tl", 9999, "drop candidates above this smoothed latency in milliseconds"),
		flagSet.StringVarP(&options.MaxLossRate, "loss-max", "sl", "1.0", "drop candidates above this loss rate (0.0-1.0)"),
		flagSet.IntVar(&options.ShortlistSize, "top", types.DefaultShortlistSize, "best candidates to carry into download testing"),
	)

	flagSet.CreateGroup("download", "Download",
		flagSet.IntVarP(&options.DownloadConcurrency, "download-concurrency", "dn", envInt(DownloadConcurrencyEnv, types.DefaultDownloadConcurrency), "parallel download tests"),
		flagSet.IntVarP(&options.DownloadTimeoutSec, "download-timeout", "dt", 10, "maximum duration of each download test in seconds"),
		flagSet.IntVar(&options.MinTrustedSec, "min-duration", 2, "shortest download considered trustworthy in seconds"),
		flagSet.IntVar(&options.MinTrustedMB, "min-mb", 1, "fewest downloaded megabytes considered trustworthy"),
		flagSet.IntVar(&options.MaxDownloadMB, "max-mb", 200, "hard cap on downloaded megabytes per candidate"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&options.Output, "output", "o", "", "file to write results to in csv format"),
		flagSet.BoolVarP(&options.JSON, "json", "j", false, "write results to stdout as json lines instead of a table"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only results in output"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
		flagSet.BoolVarP(&options.DisableUpdateCheck, "disable-update-check", "duc", false, "disable automatic edgerank update check"),
		flagSet.IntVar(&options.DeadlineSec, "deadline", 0, "abort the whole run after this many seconds (0 = no deadline)"),
		flagSet.StringVar(&options.Seed, "seed", "", "seed for range sampling (empty = random)"),
		flagSet.IntVar(&options.SampleCap, "sample", types.DefaultSampleCap, "addresses sampled from ranges above the enumeration limit"),
		flagSet.IntVar(&options.EnumLimit, "enum-limit", types.DefaultEnumerationCeiling, "largest range expanded address by address"),
		flagSet.StringVar(&options.Alpha, "alpha", "0.3", "weight of new samples in the smoothed latency (0.0-1.0]"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	if !options.DisableUpdateCheck {
		latestVersion, err := updateutils.GetToolVersionCallback("edgerank", version.GetVersion())()
		if err != nil {
			if options.Verbose {
				gologger.Error().Msgf("edgerank version check failed: %v", err.Error())
			}
		} else {
			gologger.Info().Msgf("Current edgerank version %v %v", version.GetVersion(), updateutils.GetVersionDescription(version.GetVersion(), latestVersion))
		}
	}

	return options
}

// configureOutput configures the output logging levels to be displayed on the screen
func (options *Options) configureOutput() {
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

// toConfig converts parsed flags into a measurement configuration. Flags use
// scalar units (milliseconds, seconds, megabytes) and are widened here so the
// rest of the code only ever sees durations and byte counts.
func (options *Options) toConfig() (types.Config, error) {
	cfg := types.DefaultConfig()

	cfg.TargetHost = options.TargetHost
	cfg.TargetPort = options.TargetPort
	cfg.DownloadPath = options.DownloadPath

	if options.PingConcurrency > 0 {
		cfg.PingConcurrency = options.PingConcurrency
	}
	cfg.PingCount = options.PingCount
	cfg.PingTimeout = time.Duration(options.PingTimeoutMs) * time.Millisecond
	cfg.HTTPing = options.HTTPing
	cfg.HTTPingStatusCode = options.HTTPingCode
	cfg.AllowedColos = options.Colos

	cfg.MaxLatency = time.Duration(options.MaxLatencyMs) * time.Millisecond
	cfg.ShortlistSize = options.ShortlistSize

	cfg.DownloadConcurrency = options.DownloadConcurrency
	cfg.DownloadTimeout = time.Duration(options.DownloadTimeoutSec) * time.Second
	cfg.MinTrustedDuration = time.Duration(options.MinTrustedSec) * time.Second
	cfg.MinTrustedBytes = int64(options.MinTrustedMB) << 20
	cfg.MaxDownloadBytes = int64(options.MaxDownloadMB) << 20

	cfg.EnumerationCeiling = options.EnumLimit
	cfg.SampleCap = options.SampleCap
	cfg.RunDeadline = time.Duration(options.DeadlineSec) * time.Second

	if options.MaxLossRate != "" {
		lossRate, err := strconv.ParseFloat(options.MaxLossRate, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid loss rate %q: %w", options.MaxLossRate, err)
		}
		cfg.MaxLossRate = lossRate
	}
	if options.Alpha != "" {
		alpha, err := strconv.ParseFloat(options.Alpha, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid alpha %q: %w", options.Alpha, err)
		}
		cfg.SmoothingFactor = alpha
	}
	if options.Seed != "" {
		seed, err := strconv.ParseInt(options.Seed, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid seed %q: %w", options.Seed, err)
		}
		cfg.SampleSeed = &seed
	}

	return cfg, nil
}

func envInt(raw string, fallback int) int {
	if raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			return value
		}
	}
	return fallback
}
