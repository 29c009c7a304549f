package replay_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/trackcast/internal/adapters/http/api"
	service "github.com/okian/trackcast/internal/app"
	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/internal/domain/types"
	"github.com/okian/trackcast/internal/prep"
	"github.com/okian/trackcast/internal/replay"
	"github.com/okian/trackcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// track builds one entity moving step yards along x per frame.
func track(player string, frames int, step float64) []prep.TrackingRow {
	rows := make([]prep.TrackingRow, frames)
	for i := range rows {
		rows[i] = prep.TrackingRow{
			GameID:  model.Some("2023090700"),
			PlayID:  model.Some("1"),
			NflID:   model.Some(player),
			FrameID: model.Some(int64(i + 1)),
			X:       model.Some(10 + step*float64(i)),
			Y:       model.Some(20.0),
		}
	}
	return rows
}

func startService(ctx context.Context) *service.Service {
	_ = logger.Init()
	svc := service.New()
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

type failingPredictor struct{ short bool }

func (f failingPredictor) Predict(_ context.Context, req types.PredictRequest) (types.PredictResponse, error) {
	if f.short {
		return types.PredictResponse{Predictions: nil}, nil
	}
	return types.PredictResponse{}, errors.New("boom")
}

func TestRunnerInProcess(t *testing.T) {
	Convey("Given an in-process prediction service", t, func() {
		ctx := context.Background()
		svc := startService(ctx)
		defer svc.Stop(ctx)

		Convey("A stationary entity is predicted exactly", func() {
			batches := prep.ToBatches(track("1", 5, 0))
			rep, err := replay.NewRunner(svc, replay.WithRunID("still")).Run(ctx, batches)
			So(err, ShouldBeNil)
			So(rep.RunID, ShouldEqual, "still")
			So(rep.Frames, ShouldEqual, 5)
			So(rep.Rows, ShouldEqual, 5)
			So(rep.Scored, ShouldEqual, 4)
			So(rep.RMSE, ShouldEqual, 0.0)
			So(rep.MaxError, ShouldEqual, 0.0)
		})

		Convey("A constant-velocity entity converges", func() {
			batches := prep.ToBatches(track("2", 4, 1))
			rep, err := replay.NewRunner(svc).Run(ctx, batches)
			So(err, ShouldBeNil)
			So(rep.RunID, ShouldNotBeEmpty)
			So(rep.Scored, ShouldEqual, 3)
			// Errors are 1, 0.3 and 0.09 as the smoothed velocity approaches 1.
			So(rep.MaxError, ShouldAlmostEqual, 1.0)
			So(rep.MeanError, ShouldAlmostEqual, (1+0.3+0.09)/3)
			So(rep.RMSE, ShouldAlmostEqual, math.Sqrt((1+0.09+0.0081)/3))
		})

		Convey("MaxFrames truncates the replay", func() {
			batches := prep.ToBatches(track("3", 10, 1))
			rep, err := replay.NewRunner(svc, replay.WithMaxFrames(2)).Run(ctx, batches)
			So(err, ShouldBeNil)
			So(rep.Frames, ShouldEqual, 2)
			So(rep.Scored, ShouldEqual, 1)
		})

		Convey("A row without a position drops the pending prediction", func() {
			rows := track("4", 3, 1)
			rows[1].X = model.None[float64]()
			rep, err := replay.NewRunner(svc).Run(ctx, prep.ToBatches(rows))
			So(err, ShouldBeNil)
			So(rep.Scored, ShouldEqual, 0)
		})
	})
}

func TestRunnerErrors(t *testing.T) {
	Convey("Given a runner", t, func() {
		_ = logger.Init()
		ctx := context.Background()
		batches := prep.ToBatches(track("1", 2, 1))

		Convey("Empty input is rejected", func() {
			_, err := replay.NewRunner(failingPredictor{}).Run(ctx, nil)
			So(errors.Is(err, replay.ErrNoBatches), ShouldBeTrue)
		})

		Convey("Predictor errors stop the replay", func() {
			_, err := replay.NewRunner(failingPredictor{}).Run(ctx, batches)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "boom")
		})

		Convey("Short responses are rejected", func() {
			_, err := replay.NewRunner(failingPredictor{short: true}).Run(ctx, batches)
			So(errors.Is(err, replay.ErrPredictionCount), ShouldBeTrue)
		})

		Convey("A cancelled context stops the replay", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := replay.NewRunner(failingPredictor{}).Run(cctx, batches)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestRunnerOverHTTP(t *testing.T) {
	Convey("Given a service behind the HTTP API", t, func() {
		ctx := context.Background()
		svc := startService(ctx)
		defer svc.Stop(ctx)

		mux := http.NewServeMux()
		api.NewServer(svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := replay.NewClient(srv.URL, 0)

		Convey("The client reports readiness", func() {
			So(client.Ready(ctx), ShouldBeNil)
		})

		Convey("A replay over HTTP matches the in-process result", func() {
			rep, err := replay.NewRunner(client, replay.WithRunID("http")).Run(ctx, prep.ToBatches(track("9", 4, 1)))
			So(err, ShouldBeNil)
			So(rep.Scored, ShouldEqual, 3)
			So(rep.MaxError, ShouldAlmostEqual, 1.0)

			st := svc.GetStats(ctx)
			So(st.LastBatchID, ShouldEqual, "http-3")
		})

		Convey("A stopped service is not ready", func() {
			svc.Stop(ctx)
			err := client.Ready(ctx)
			So(errors.Is(err, replay.ErrServiceUnavailable), ShouldBeTrue)

			_, err = client.Predict(ctx, types.PredictRequest{Test: &model.Batch{Columns: []string{"x"}}})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "503")
		})
	})
}

func TestWriteReport(t *testing.T) {
	Convey("Reports are written as JSON", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "report.json")
		So(replay.WriteReport(path, replay.Report{RunID: "r", Scored: 2, RMSE: 0.5}), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		var got replay.Report
		So(json.Unmarshal(data, &got), ShouldBeNil)
		So(got.RunID, ShouldEqual, "r")
		So(got.RMSE, ShouldEqual, 0.5)
	})
}
