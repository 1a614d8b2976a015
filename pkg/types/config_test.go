package types

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.TargetHost = "" },
			wantErr: "target host",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.TargetPort = 70000 },
			wantErr: "target port",
		},
		{
			name:    "zero ping count",
			mutate:  func(c *Config) { c.PingCount = 0 },
			wantErr: "ping count",
		},
		{
			name:    "negative ping timeout",
			mutate:  func(c *Config) { c.PingTimeout = -time.Second },
			wantErr: "ping timeout",
		},
		{
			name:    "smoothing factor above one",
			mutate:  func(c *Config) { c.SmoothingFactor = 1.5 },
			wantErr: "smoothing factor",
		},
		{
			name:    "smoothing factor zero",
			mutate:  func(c *Config) { c.SmoothingFactor = 0 },
			wantErr: "smoothing factor",
		},
		{
			name:    "loss rate above one",
			mutate:  func(c *Config) { c.MaxLossRate = 1.01 },
			wantErr: "max loss rate",
		},
		{
			name:    "min trusted duration above download timeout",
			mutate:  func(c *Config) { c.MinTrustedDuration = c.DownloadTimeout + time.Second },
			wantErr: "min trusted duration",
		},
		{
			name:    "byte caps inverted",
			mutate:  func(c *Config) { c.MaxDownloadBytes = c.MinTrustedBytes - 1 },
			wantErr: "max download bytes",
		},
		{
			name: "deadline below ping timeout",
			mutate: func(c *Config) {
				c.RunDeadline = 500 * time.Millisecond
				c.PingTimeout = time.Second
			},
			wantErr: "ping timeout",
		},
		{
			name: "deadline below download timeout",
			mutate: func(c *Config) {
				c.RunDeadline = 5 * time.Second
				c.PingTimeout = time.Second
				c.DownloadTimeout = 10 * time.Second
			},
			wantErr: "download timeout",
		},
		{
			name: "deadline above stage timeouts",
			mutate: func(c *Config) {
				c.RunDeadline = 5 * time.Minute
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfigConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PingConcurrency < 64 || cfg.PingConcurrency > 512 {
		t.Errorf("PingConcurrency = %d, want within [64,512]", cfg.PingConcurrency)
	}
	if cfg.DownloadConcurrency >= cfg.PingConcurrency {
		t.Errorf("DownloadConcurrency = %d not narrower than PingConcurrency = %d",
			cfg.DownloadConcurrency, cfg.PingConcurrency)
	}
}

func TestDownloadURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		port int
		path string
		want string
	}{
		{
			name: "https default port",
			host: "speed.cloudflare.com",
			port: 443,
			path: "/__down?bytes=1000",
			want: "https://speed.cloudflare.com/__down?bytes=1000",
		},
		{
			name: "plain http",
			host: "example.com",
			port: 80,
			path: "/file",
			want: "http://example.com/file",
		},
		{
			name: "https alternate port",
			host: "example.com",
			port: 8443,
			path: "/file",
			want: "https://example.com:8443/file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TargetHost = tt.host
			cfg.TargetPort = tt.port
			cfg.DownloadPath = tt.path
			if got := cfg.DownloadURL(); got != tt.want {
				t.Errorf("DownloadURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
