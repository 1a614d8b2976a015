package types

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Default values for product-tuning knobs. All of them are overridable
// through flags; none is load-bearing for correctness.
const (
	DefaultTargetHost   = "speed.cloudflare.com"
	DefaultTargetPort   = 443
	DefaultDownloadPath = "/__down?bytes=209715200"

	DefaultPingCount       = 4
	DefaultPingTimeout     = time.Second
	DefaultSmoothingFactor = 0.3

	DefaultMaxLossRate   = 1.0
	DefaultMaxLatency    = 9999 * time.Millisecond
	DefaultShortlistSize = 10

	DefaultDownloadConcurrency = 1
	DefaultDownloadTimeout     = 10 * time.Second
	DefaultMinTrustedDuration  = 2 * time.Second
	DefaultMinTrustedBytes     = 1 << 20
	DefaultMaxDownloadBytes    = 200 << 20

	DefaultEnumerationCeiling = 256
	DefaultSampleCap          = 512
)

// UserAgent is sent on every measurement request, probe and download alike.
// Edges serve browser traffic differently from obvious tooling, so the
// string mimics a desktop browser.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.80 Safari/537.36"

// Config holds the immutable parameters of a single run. It is constructed
// once by the caller, validated, and then passed by value to every pipeline
// stage; nothing mutates it after construction.
type Config struct {
	// Target endpoint. TargetHost stays in the Host header and TLS SNI of
	// every request; candidate addresses are substituted underneath it at
	// the dialer level. DownloadPath is the path+query appended to the
	// host for throughput measurement and HTTP-mode probing.
	TargetHost   string
	TargetPort   int
	DownloadPath string

	// Latency probing.
	PingConcurrency int
	PingCount       int
	PingTimeout     time.Duration
	// SmoothingFactor is the EWMA alpha applied to successive RTT samples
	// of one candidate. Must be in (0,1]; 1 keeps only the latest sample.
	SmoothingFactor float64

	// HTTP probe mode. When HTTPing is set, latency is measured with HEAD
	// requests instead of bare TCP connects. HTTPingStatusCode outside
	// [100,599] (including the zero value) accepts 200/301/302; an
	// in-range value must match exactly. AllowedColos restricts
	// candidates to the listed three-letter datacenter codes.
	HTTPing           bool
	HTTPingStatusCode int
	AllowedColos      []string

	// Filtering thresholds and shortlist size.
	MaxLossRate   float64
	MaxLatency    time.Duration
	ShortlistSize int

	// Throughput testing.
	DownloadConcurrency int
	DownloadTimeout     time.Duration
	MinTrustedDuration  time.Duration
	MinTrustedBytes     int64
	MaxDownloadBytes    int64

	// Candidate generation. Ranges covering at most EnumerationCeiling
	// addresses are enumerated exhaustively; larger ranges are sampled
	// down to SampleCap candidates. A non-nil SampleSeed makes sampling
	// reproducible.
	EnumerationCeiling int
	SampleCap          int
	SampleSeed         *int64

	// RunDeadline bounds the whole pipeline. Zero disables it.
	RunDeadline time.Duration
}

// DefaultConfig returns a Config with every knob at its default. Ping
// concurrency is scaled to the machine's logical CPU count.
func DefaultConfig() Config {
	return Config{
		TargetHost:          DefaultTargetHost,
		TargetPort:          DefaultTargetPort,
		DownloadPath:        DefaultDownloadPath,
		PingConcurrency:     defaultPingConcurrency(),
		PingCount:           DefaultPingCount,
		PingTimeout:         DefaultPingTimeout,
		SmoothingFactor:     DefaultSmoothingFactor,
		MaxLossRate:         DefaultMaxLossRate,
		MaxLatency:          DefaultMaxLatency,
		ShortlistSize:       DefaultShortlistSize,
		DownloadConcurrency: DefaultDownloadConcurrency,
		DownloadTimeout:     DefaultDownloadTimeout,
		MinTrustedDuration:  DefaultMinTrustedDuration,
		MinTrustedBytes:     DefaultMinTrustedBytes,
		MaxDownloadBytes:    DefaultMaxDownloadBytes,
		EnumerationCeiling:  DefaultEnumerationCeiling,
		SampleCap:           DefaultSampleCap,
	}
}

// defaultPingConcurrency scales the probe pool to available parallelism,
// clamped so small machines still get useful throughput and large ones do
// not exhaust file descriptors.
func defaultPingConcurrency() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = 4
	}
	c := 32 * n
	if c < 64 {
		c = 64
	}
	if c > 512 {
		c = 512
	}
	return c
}

// Validate checks the configuration before any network activity happens.
func (c Config) Validate() error {
	if c.TargetHost == "" {
		return fmt.Errorf("target host must be specified")
	}
	if c.TargetPort <= 0 || c.TargetPort > 65535 {
		return fmt.Errorf("target port must be between 1 and 65535")
	}
	if c.PingConcurrency <= 0 {
		return fmt.Errorf("ping concurrency must be positive")
	}
	if c.PingCount <= 0 {
		return fmt.Errorf("ping count must be positive")
	}
	if c.PingTimeout <= 0 {
		return fmt.Errorf("ping timeout must be positive")
	}
	if c.SmoothingFactor <= 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("smoothing factor must be in (0,1]")
	}
	if c.MaxLossRate < 0 || c.MaxLossRate > 1 {
		return fmt.Errorf("max loss rate must be in [0,1]")
	}
	if c.MaxLatency <= 0 {
		return fmt.Errorf("max latency must be positive")
	}
	if c.ShortlistSize <= 0 {
		return fmt.Errorf("shortlist size must be positive")
	}
	if c.DownloadConcurrency <= 0 {
		return fmt.Errorf("download concurrency must be positive")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	if c.MinTrustedDuration <= 0 || c.MinTrustedDuration >= c.DownloadTimeout {
		return fmt.Errorf("min trusted duration must be positive and below the download timeout")
	}
	if c.MinTrustedBytes <= 0 {
		return fmt.Errorf("min trusted bytes must be positive")
	}
	if c.MaxDownloadBytes < c.MinTrustedBytes {
		return fmt.Errorf("max download bytes must be at least min trusted bytes")
	}
	if c.EnumerationCeiling <= 0 {
		return fmt.Errorf("enumeration ceiling must be positive")
	}
	if c.SampleCap <= 0 {
		return fmt.Errorf("sample cap must be positive")
	}
	if c.RunDeadline > 0 {
		// Stage-local timeouts must leave room for the global deadline to
		// matter at all.
		if c.PingTimeout >= c.RunDeadline {
			return fmt.Errorf("ping timeout must be below the run deadline")
		}
		if c.DownloadTimeout >= c.RunDeadline {
			return fmt.Errorf("download timeout must be below the run deadline")
		}
	}
	return nil
}

// DownloadURL builds the measurement URL. Plain HTTP is used only when the
// target port is 80; every other port is assumed to terminate TLS.
func (c Config) DownloadURL() string {
	scheme := "https"
	if c.TargetPort == 80 {
		scheme = "http"
	}
	if (scheme == "https" && c.TargetPort == 443) || (scheme == "http" && c.TargetPort == 80) {
		return fmt.Sprintf("%s://%s%s", scheme, c.TargetHost, c.DownloadPath)
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, c.TargetHost, c.TargetPort, c.DownloadPath)
}
