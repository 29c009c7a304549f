package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/trackcast/internal/domain/model"
	types "github.com/okian/trackcast/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPredictRequest(t *testing.T) {
	Convey("Given a predict request body", t, func() {
		body := `{"test":{"columns":["gameId","x","y"],"rows":[[2022091200,1.5,null]]}}`

		Convey("When decoding it", func() {
			var req types.PredictRequest
			err := json.Unmarshal([]byte(body), &req)

			Convey("Then the optional parts stay empty and nulls survive", func() {
				So(err, ShouldBeNil)
				So(req.BatchID, ShouldEqual, "")
				So(req.TestInput, ShouldBeNil)
				So(req.Test, ShouldNotBeNil)
				So(req.Test.Columns, ShouldResemble, []string{"gameId", "x", "y"})
				So(req.Test.Len(), ShouldEqual, 1)
				So(req.Test.Rows[0][2], ShouldBeNil)
			})
		})

		Convey("When the test batch is missing", func() {
			var req types.PredictRequest
			err := json.Unmarshal([]byte(`{"batch_id":"b1"}`), &req)

			Convey("Then Test is nil", func() {
				So(err, ShouldBeNil)
				So(req.Test, ShouldBeNil)
				So(req.BatchID, ShouldEqual, "b1")
			})
		})
	})
}

func TestPredictResponse(t *testing.T) {
	Convey("Given a predict response", t, func() {
		resp := types.PredictResponse{
			BatchID:     "b1",
			Predictions: []model.Point{{X: 1, Y: 2}, {X: 3.5, Y: 0}},
		}

		Convey("When encoding it", func() {
			b, err := json.Marshal(resp)

			Convey("Then every prediction has exactly x and y", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"batch_id":"b1","predictions":[{"x":1,"y":2},{"x":3.5,"y":0}]}`)
			})
		})
	})
}

func TestStateView(t *testing.T) {
	Convey("Given a state view for a key without a player", t, func() {
		view := types.StateView{
			Key:   "g/p/-",
			ID:    model.Key{Game: model.Some("g"), Play: model.Some("p")},
			State: model.State{X: model.Some(1.0), VX: 0.5},
		}

		Convey("When encoding it", func() {
			b, err := json.Marshal(view)

			Convey("Then absent parts render as null", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldContainSubstring, `"nflId":null`)
				So(string(b), ShouldContainSubstring, `"y":null`)
				So(string(b), ShouldContainSubstring, `"frame":null`)
			})
		})
	})
}
