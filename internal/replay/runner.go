// Package replay feeds prepared frame batches through a predictor in order
// and scores each prediction against the entity's next observed position.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/internal/domain/types"
	"github.com/okian/trackcast/internal/prep"
	"github.com/okian/trackcast/pkg/logger"
)

const (
	defaultProgressInterval = 5 * time.Second
	reportFilePermission    = 0o600
	directoryPermission     = 0o750
)

// Predictor is the prediction surface replayed against. The in-process
// service and Client both satisfy it.
type Predictor interface {
	Predict(ctx context.Context, req types.PredictRequest) (types.PredictResponse, error)
}

// Report summarises one replay.
type Report struct {
	RunID     string        `json:"run_id"`
	Frames    int           `json:"frames"`
	Rows      int           `json:"rows"`
	Scored    int           `json:"scored"`
	RMSE      float64       `json:"rmse"`
	MeanError float64       `json:"mean_error"`
	P50Error  float64       `json:"p50_error"`
	P95Error  float64       `json:"p95_error"`
	MaxError  float64       `json:"max_error"`
	Duration  time.Duration `json:"duration_ns"`
}

// Runner replays batches against a Predictor.
type Runner struct {
	predictor     Predictor
	logger        logger.Logger
	runID         string
	maxFrames     int
	progressEvery time.Duration
}

// NewRunner creates a runner. The run id defaults to a random UUID.
func NewRunner(p Predictor, opts ...Option) *Runner {
	r := &Runner{
		predictor:     p,
		runID:         uuid.NewString(),
		progressEvery: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r
}

// Run submits batches in order. A prediction made for an entity is scored
// by the Euclidean distance to the position in that entity's next row;
// rows without a position score nothing and discard the pending
// prediction.
func (r *Runner) Run(ctx context.Context, batches []prep.FrameBatch) (Report, error) {
	if len(batches) == 0 {
		return Report{}, ErrNoBatches
	}
	if r.maxFrames > 0 && len(batches) > r.maxFrames {
		batches = batches[:r.maxFrames]
	}

	start := time.Now()
	rep := Report{RunID: r.runID}
	pending := make(map[model.Key]model.Point)
	var errs []float64

	r.logger.Info(ctx, "starting replay",
		logger.String("run_id", r.runID),
		logger.Int("frames", len(batches)),
	)

	lastReport := start
	for i := range batches {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		fb := &batches[i]
		b := fb.Batch
		resp, err := r.predictor.Predict(ctx, types.PredictRequest{
			BatchID: fmt.Sprintf("%s-%d", r.runID, i),
			Test:    &b,
		})
		if err != nil {
			return rep, fmt.Errorf("frame batch %d: %w", i, err)
		}
		if len(resp.Predictions) != b.Len() {
			return rep, fmt.Errorf("%w: frame batch %d: %d predictions for %d rows",
				ErrPredictionCount, i, len(resp.Predictions), b.Len())
		}

		for j, k := range fb.Keys {
			if x, y, ok := position(b.Rows[j]); ok {
				if p, seen := pending[k]; seen {
					errs = append(errs, math.Hypot(p.X-x, p.Y-y))
				}
				pending[k] = resp.Predictions[j]
			} else {
				delete(pending, k)
			}
		}
		rep.Frames++
		rep.Rows += b.Len()

		if time.Since(lastReport) >= r.progressEvery {
			lastReport = time.Now()
			r.logger.Info(ctx, "replay progress",
				logger.Int("frames", rep.Frames),
				logger.Int("of", len(batches)),
				logger.Int("scored", len(errs)),
			)
		}
	}

	rep.Scored = len(errs)
	summarize(&rep, errs)
	rep.Duration = time.Since(start)

	r.logger.Info(ctx, "replay finished",
		logger.String("run_id", rep.RunID),
		logger.Int("frames", rep.Frames),
		logger.Int("rows", rep.Rows),
		logger.Int("scored", rep.Scored),
		logger.Float64("rmse", rep.RMSE),
		logger.Float64("mean_error", rep.MeanError),
		logger.Float64("max_error", rep.MaxError),
		logger.Duration("took", rep.Duration),
	)
	return rep, nil
}

// position reads x and y from a row laid out as prep.BatchColumns.
func position(row []any) (x, y float64, ok bool) {
	const xi, yi = 5, 6
	if len(row) <= yi {
		return 0, 0, false
	}
	px, py := model.Float(row[xi]), model.Float(row[yi])
	if !px.Ok || !py.Ok {
		return 0, 0, false
	}
	return px.Val, py.Val, true
}

func summarize(rep *Report, errs []float64) {
	if len(errs) == 0 {
		return
	}
	sorted := append([]float64(nil), errs...)
	sort.Float64s(sorted)

	sq := make([]float64, len(errs))
	floats.MulTo(sq, errs, errs)

	rep.RMSE = math.Sqrt(stat.Mean(sq, nil))
	rep.MeanError = stat.Mean(errs, nil)
	rep.P50Error = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	rep.P95Error = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	rep.MaxError = floats.Max(errs)
}

// WriteReport writes rep as indented JSON, creating the parent directory.
func WriteReport(path string, rep Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), reportFilePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
