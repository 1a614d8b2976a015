package runner

import (
	"context"
	"time"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/GuangYu-yu/edgerank/pkg/download"
	"github.com/GuangYu-yu/edgerank/pkg/generator"
	"github.com/GuangYu-yu/edgerank/pkg/probe"
	"github.com/GuangYu-yu/edgerank/pkg/progress"
	"github.com/GuangYu-yu/edgerank/pkg/rank"
	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// progressInterval is how often a progress line is printed while the
// probe and download pools are busy.
const progressInterval = 10 * time.Second

// Runner contains the internal logic of the program
type Runner struct {
	options *Options
	cfg     types.Config
	tracker *progress.Tracker
	runID   string
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	cfg, err := options.toConfig()
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not process options")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("invalid configuration")
	}
	return &Runner{
		options: options,
		cfg:     cfg,
		tracker: &progress.Tracker{},
		runID:   xid.New().String(),
	}, nil
}

// Run executes the measurement pipeline end to end: candidate generation,
// latency probing, filtering, download testing and reporting. A cancelled
// context stops scheduling new work and reports whatever completed.
func (r *Runner) Run(ctx context.Context) error {
	if limit, err := raiseFdLimit(); err != nil {
		gologger.Verbose().Msgf("could not raise file descriptor limit: %s", err)
	} else if limit > 0 {
		gologger.Verbose().Msgf("file descriptor limit: %d", limit)
	}
	if info, err := host.Info(); err == nil {
		gologger.Verbose().Msgf("running on %s (%s %s, kernel %s)", info.Hostname, info.Platform, info.PlatformVersion, info.KernelVersion)
	}

	ranges, err := r.collectRanges()
	if err != nil {
		return err
	}

	candidates, err := generator.Generate(r.cfg, ranges)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("could not generate candidates")
	}
	gologger.Info().Msgf("Testing %d candidates from %d range(s) against %s [run %s]", len(candidates), len(ranges), r.cfg.TargetHost, r.runID)

	if r.cfg.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunDeadline)
		defer cancel()
	}

	stopProgress := r.startProgress(ctx)
	defer stopProgress()

	mode := "tcp"
	if r.cfg.HTTPing {
		mode = "http"
	}
	gologger.Info().Msgf("Probing latency with %d workers in %s mode", r.cfg.PingConcurrency, mode)
	records, err := probe.NewPinger(r.cfg, r.tracker).Run(ctx, candidates)
	if err != nil {
		return errorutil.NewWithErr(err).Msgf("latency probing failed")
	}
	if ctx.Err() != nil {
		gologger.Warning().Msgf("run interrupted during probing, results are partial")
	}

	alive := 0
	for _, record := range records {
		if record.Received > 0 {
			alive++
		}
	}
	shortlist := rank.Shortlist(r.cfg, records)
	gologger.Info().Msgf("%d/%d candidates responded, %d shortlisted for download testing", alive, len(records), len(shortlist))

	var throughput []types.ThroughputRecord
	switch {
	case len(shortlist) == 0:
		gologger.Warning().Msgf("no candidate passed the latency filters")
	case ctx.Err() != nil:
		gologger.Warning().Msgf("run interrupted, skipping download testing")
	default:
		gologger.Info().Msgf("Download testing %d candidates with %d workers", len(shortlist), r.cfg.DownloadConcurrency)
		throughput, err = download.NewTester(r.cfg, r.tracker).Run(ctx, shortlist)
		if err != nil {
			return errorutil.NewWithErr(err).Msgf("download testing failed")
		}
		if ctx.Err() != nil {
			gologger.Warning().Msgf("run interrupted during download testing, results are partial")
		}
	}

	return r.report(rank.Merge(shortlist, throughput))
}

// Close releases resources held by the runner instance
func (r *Runner) Close() {}

// startProgress prints periodic progress lines until the returned stop
// function is called or the context ends.
func (r *Runner) startProgress(ctx context.Context) func() {
	ticker := time.NewTicker(progressInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := r.tracker.Snapshot()
				if snap.DownloadQueued > 0 {
					gologger.Info().Msgf("progress: %d/%d downloads done", snap.DownloadDone, snap.DownloadQueued)
				} else if snap.ProbeQueued > 0 {
					gologger.Info().Msgf("progress: %d/%d probes done, %d responding", snap.ProbeDone, snap.ProbeQueued, snap.ProbeAlive)
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
