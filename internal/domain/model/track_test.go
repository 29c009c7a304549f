package model_test

import (
	"encoding/json"
	"math"
	"testing"

	model "github.com/okian/trackcast/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	convey.Convey("Given entity keys", t, func() {
		full := model.Key{Game: model.Some("1"), Play: model.Some("2"), Player: model.Some("3")}

		convey.Convey("When comparing keys with the same components", func() {
			other := model.Key{Game: model.Some("1"), Play: model.Some("2"), Player: model.Some("3")}

			convey.Convey("Then they should be equal and hash the same", func() {
				convey.So(full == other, convey.ShouldBeTrue)
				convey.So(full.Hash(), convey.ShouldEqual, other.Hash())
			})
		})

		convey.Convey("When one component is absent", func() {
			partial := model.Key{Game: model.Some("1"), Play: model.Some("2")}

			convey.Convey("Then the absent component should not act as a wildcard", func() {
				convey.So(full == partial, convey.ShouldBeFalse)
				convey.So(partial.String(), convey.ShouldEqual, "1/2/-")
			})
		})

		convey.Convey("When a component is empty rather than absent", func() {
			empty := model.Key{Game: model.Some("1"), Play: model.Some("2"), Player: model.Some("")}
			absent := model.Key{Game: model.Some("1"), Play: model.Some("2")}

			convey.Convey("Then the keys should differ", func() {
				convey.So(empty == absent, convey.ShouldBeFalse)
				convey.So(empty.Hash(), convey.ShouldNotEqual, absent.Hash())
			})
		})

		convey.Convey("When all components are absent", func() {
			var a, b model.Key

			convey.Convey("Then they should form one bucket", func() {
				convey.So(a == b, convey.ShouldBeTrue)
				m := map[model.Key]int{a: 1}
				convey.So(m[b], convey.ShouldEqual, 1)
				convey.So(a.String(), convey.ShouldEqual, "-/-/-")
			})
		})
	})
}

func TestOptConversions(t *testing.T) {
	convey.Convey("Given loosely typed cells", t, func() {
		convey.Convey("When converting to floats", func() {
			convey.So(model.Float(nil).Ok, convey.ShouldBeFalse)
			convey.So(model.Float("NA").Ok, convey.ShouldBeFalse)
			convey.So(model.Float("").Ok, convey.ShouldBeFalse)
			convey.So(model.Float("abc").Ok, convey.ShouldBeFalse)
			convey.So(model.Float("1.5"), convey.ShouldResemble, model.Some(1.5))
			convey.So(model.Float(int64(3)), convey.ShouldResemble, model.Some(3.0))
			convey.So(model.Float(json.Number("2.25")), convey.ShouldResemble, model.Some(2.25))

			// Non-finite values would poison an entity's velocity.
			for _, v := range []any{"NaN", "Inf", "+Inf", "-Inf", "nan", math.NaN(), math.Inf(1), float32(math.Inf(-1))} {
				convey.So(model.Float(v).Ok, convey.ShouldBeFalse)
			}
			convey.So(model.Int("NaN").Ok, convey.ShouldBeFalse)
		})

		convey.Convey("When converting to integers", func() {
			convey.So(model.Int(10.0), convey.ShouldResemble, model.Some(int64(10)))
			convey.So(model.Int(10.5).Ok, convey.ShouldBeFalse)
			convey.So(model.Int("7"), convey.ShouldResemble, model.Some(int64(7)))
			convey.So(model.Int(json.Number("12")), convey.ShouldResemble, model.Some(int64(12)))
			convey.So(model.Int(nil).Ok, convey.ShouldBeFalse)
		})

		convey.Convey("When converting to identifiers", func() {
			convey.So(model.Ident(2023090700.0), convey.ShouldResemble, model.Some("2023090700"))
			convey.So(model.Ident(json.Number("2023090700")), convey.ShouldResemble, model.Some("2023090700"))
			convey.So(model.Ident("abc"), convey.ShouldResemble, model.Some("abc"))
			convey.So(model.Ident(nil).Ok, convey.ShouldBeFalse)
		})
	})
}

func TestOptJSON(t *testing.T) {
	convey.Convey("Given a state with absent fields", t, func() {
		st := model.State{X: model.Some(1.5), VX: 0.7}

		convey.Convey("When marshalling it", func() {
			b, err := json.Marshal(st)

			convey.Convey("Then absent fields should render as null", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldEqual, `{"x":1.5,"y":null,"vx":0.7,"vy":0,"frame":null}`)
			})

			convey.Convey("And it should decode back to the same state", func() {
				var back model.State
				convey.So(json.Unmarshal(b, &back), convey.ShouldBeNil)
				convey.So(back, convey.ShouldResemble, st)
			})
		})
	})
}
