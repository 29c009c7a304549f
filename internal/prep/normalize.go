package prep

import (
	"math"

	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/metrics"
)

// Direction is the attacking direction of a play.
type Direction string

// Play directions.
const (
	Left  Direction = "left"
	Right Direction = "right"
)

// Field is the playing surface in yards.
type Field struct {
	Length float64
	Width  float64
}

// DefaultField is an NFL field including end zones.
var DefaultField = Field{Length: 120.0, Width: 53.3}

type playKey struct{ game, play string }

// Normalize faces every play to the right. Left-moving rows are reflected
// through the field centre (x' = Length - x, y' = Width - y) and all
// coordinates are clipped to the field. The direction of a row comes from
// its own playDirection, then from plays, then from the sign of the x step
// to the next row (the last row has no successor and counts as left).
// It returns the number of rows flipped.
func Normalize(rows []TrackingRow, plays *Table, field Field) int {
	byPlay := playDirections(plays)

	flipped := 0
	for i := range rows {
		r := &rows[i]
		r.Direction = direction(rows, i, byPlay)

		x, y := r.X, r.Y
		if r.Direction == Left {
			x = mirror(x, field.Length)
			y = mirror(y, field.Width)
			flipped++
		}
		r.XNorm = clip(x, field.Length)
		r.YNorm = clip(y, field.Width)
	}
	metrics.RecordPrepRowsFlipped(flipped)
	return flipped
}

func playDirections(plays *Table) map[playKey]Direction {
	if plays == nil || !plays.Has("playDirection") || !plays.Has("gameId") || !plays.Has("playId") {
		return nil
	}
	out := make(map[playKey]Direction, len(plays.Rows))
	for i := range plays.Rows {
		d := asDirection(plays.Get(i, "playDirection"))
		if d == "" {
			continue
		}
		g, p := model.Ident(plays.Get(i, "gameId")), model.Ident(plays.Get(i, "playId"))
		out[playKey{g.Val, p.Val}] = d
	}
	return out
}

func direction(rows []TrackingRow, i int, byPlay map[playKey]Direction) Direction {
	r := &rows[i]
	if d := asDirection(r.PlayDirection); d != "" {
		return d
	}
	if d, ok := byPlay[playKey{r.GameID.Val, r.PlayID.Val}]; ok {
		return d
	}
	if i+1 < len(rows) && r.X.Ok && rows[i+1].X.Ok && rows[i+1].X.Val-r.X.Val >= 0 {
		return Right
	}
	return Left
}

func asDirection(s string) Direction {
	switch Direction(s) {
	case Left, "Left", "LEFT":
		return Left
	case Right, "Right", "RIGHT":
		return Right
	}
	return ""
}

func mirror(v model.Opt[float64], extent float64) model.Opt[float64] {
	if !v.Ok {
		return v
	}
	return model.Some(extent - v.Val)
}

func clip(v model.Opt[float64], extent float64) model.Opt[float64] {
	if !v.Ok {
		return v
	}
	return model.Some(math.Min(math.Max(v.Val, 0), extent))
}
