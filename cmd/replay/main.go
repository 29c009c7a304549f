// Command replay feeds prepared tracking frames through the predictor and
// reports the error against each entity's next observed position. It runs
// against an in-process service unless -url names a running one.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"

	service "github.com/okian/trackcast/internal/app"
	"github.com/okian/trackcast/internal/config"
	"github.com/okian/trackcast/internal/prep"
	"github.com/okian/trackcast/internal/replay"
	"github.com/okian/trackcast/pkg/logger"
)

const defaultTimeout = 30 * time.Second

type options struct {
	rawDir     string
	url        string
	timeout    time.Duration
	maxFrames  int
	output     string
	cpuProfile string
	normalize  bool
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command and returns its exit code. Returning instead of
// exiting lets the deferred profiler and signal cleanup run.
func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	var o options
	flags := flag.NewFlagSet("replay", flag.ContinueOnError)
	flags.StringVar(&o.rawDir, "raw", cfg.RawDir, "Directory holding tracking_week*.csv and plays.csv")
	flags.StringVar(&o.url, "url", "", "Base URL of a running service (default: in-process)")
	flags.DurationVar(&o.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.IntVar(&o.maxFrames, "max-frames", 0, "Stop after this many frame batches (0 = all)")
	flags.StringVar(&o.output, "output", "", "Write the JSON report to this file")
	flags.StringVar(&o.cpuProfile, "cpuprofile", "", "Write a CPU profile into this directory")
	flags.BoolVar(&o.normalize, "normalize", true, "Face every play to the right before replaying")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("replay")

	if o.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(o.cpuProfile), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	rep, err := run(ctx, cfg, log, o)
	if err != nil {
		log.Error(ctx, "replay failed", logger.Error(err))
		return 1
	}
	if o.output != "" {
		if err := replay.WriteReport(o.output, rep); err != nil {
			log.Error(ctx, "failed to write report", logger.Error(err))
			return 1
		}
		log.Info(ctx, "report saved", logger.String("path", o.output))
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, o options) (replay.Report, error) {
	rows, err := prep.LoadTracking(ctx, o.rawDir)
	if err != nil {
		return replay.Report{}, err
	}
	if o.normalize {
		plays, err := prep.LoadPlays(ctx, o.rawDir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return replay.Report{}, err
		}
		prep.Normalize(rows, plays, prep.Field{Length: cfg.FieldLength, Width: cfg.FieldWidth})
	}
	batches := prep.ToBatches(rows)

	var predictor replay.Predictor
	if o.url != "" {
		client := replay.NewClient(o.url, o.timeout)
		if err := client.Ready(ctx); err != nil {
			return replay.Report{}, err
		}
		predictor = client
	} else {
		svc := service.New(
			service.WithLogger(log.Named("service")),
			service.WithSmoothing(cfg.SmoothingAlpha, cfg.DTFloor),
			service.WithDefaultDT(cfg.DefaultDT),
			service.WithMaxEntities(cfg.MaxEntities),
			service.WithPartitions(cfg.Partitions),
			service.WithPartitionBuffer(cfg.PartitionBuffer),
			service.WithMaxBatchRows(cfg.MaxBatchRows),
		)
		if err := svc.Start(ctx); err != nil {
			return replay.Report{}, err
		}
		defer svc.Stop(context.WithoutCancel(ctx))
		predictor = svc
	}

	return replay.NewRunner(predictor,
		replay.WithLogger(log),
		replay.WithMaxFrames(o.maxFrames),
	).Run(ctx, batches)
}
