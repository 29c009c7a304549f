// Command prep loads raw tracking exports, faces every play the same
// direction and writes the normalized table as parquet.
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

	"github.com/okian/trackcast/internal/config"
	"github.com/okian/trackcast/internal/prep"
	"github.com/okian/trackcast/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var (
		rawDir = flag.String("raw", cfg.RawDir, "Directory holding tracking_week*.csv, plays.csv and players.csv")
		outDir = flag.String("out", cfg.OutDir, "Output directory")
		name   = flag.String("name", prep.NormalizedFile, "Output file name")
	)
	flag.Parse()

	if err := logger.InitWith(os.Stdout, logger.Format(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Named("prep")

	field := prep.Field{Length: cfg.FieldLength, Width: cfg.FieldWidth}
	path, err := run(ctx, log, *rawDir, *outDir, *name, field)
	if err != nil {
		log.Error(ctx, "prep failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "wrote normalized tracking", logger.String("path", path))
}

func run(ctx context.Context, log logger.Logger, rawDir, outDir, name string, field prep.Field) (string, error) {
	start := time.Now()

	rows, err := prep.LoadTracking(ctx, rawDir)
	if err != nil {
		return "", err
	}
	log.Info(ctx, "loaded tracking", logger.Int("rows", len(rows)), logger.String("dir", rawDir))

	plays, err := prep.LoadPlays(ctx, rawDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn(ctx, "plays file not found; direction falls back to tracking data")
	case err != nil:
		return "", err
	default:
		log.Info(ctx, "loaded plays", logger.Int("rows", len(plays.Rows)))
	}

	if players, err := prep.LoadPlayers(ctx, rawDir); err == nil {
		log.Info(ctx, "loaded players", logger.Int("rows", len(players.Rows)))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	flipped := prep.Normalize(rows, plays, field)
	log.Info(ctx, "normalized play direction",
		logger.Int("rows", len(rows)),
		logger.Int("flipped", flipped),
	)

	path, err := prep.WriteParquet(ctx, outDir, name, rows)
	if err != nil {
		return "", err
	}
	log.Debug(ctx, "prep finished", logger.Duration("took", time.Since(start)))
	return path, nil
}
