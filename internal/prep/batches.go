package prep

import (
	"github.com/okian/trackcast/internal/domain/model"
)

// BatchColumns is the column layout produced by ToBatches.
var BatchColumns = []string{"gameId", "playId", "nflId", "frameId", "prevFrameId", "x", "y"}

// FrameBatch is every row of one (game, play, frame) triple.
type FrameBatch struct {
	Game  model.Opt[string]
	Play  model.Opt[string]
	Frame model.Opt[int64]
	Batch model.Batch
	// Keys lists the entity of each batch row, aligned with Batch.Rows.
	Keys []model.Key
}

type frameKey struct {
	game, play model.Opt[string]
	frame      model.Opt[int64]
}

// ToBatches groups rows into frame batches in first-seen order. Each row
// carries the frame id at which its entity was last seen as prevFrameId,
// null for the first sighting. Positions come from TrackingRow.Position.
func ToBatches(rows []TrackingRow) []FrameBatch {
	var out []FrameBatch
	index := make(map[frameKey]int)
	lastFrame := make(map[model.Key]model.Opt[int64])

	for i := range rows {
		r := &rows[i]
		fk := frameKey{game: r.GameID, play: r.PlayID, frame: r.FrameID}
		bi, ok := index[fk]
		if !ok {
			bi = len(out)
			index[fk] = bi
			out = append(out, FrameBatch{
				Game:  r.GameID,
				Play:  r.PlayID,
				Frame: r.FrameID,
				Batch: model.Batch{Columns: BatchColumns},
			})
		}

		k := r.Key()
		prev := lastFrame[k]
		if r.FrameID.Ok {
			lastFrame[k] = r.FrameID
		}

		x, y := r.Position()
		b := &out[bi]
		b.Batch.Rows = append(b.Batch.Rows, []any{
			cell(r.GameID), cell(r.PlayID), cell(r.NflID),
			cell(r.FrameID), cell(prev),
			cell(x), cell(y),
		})
		b.Keys = append(b.Keys, k)
	}
	return out
}

func cell[T model.Numeric](o model.Opt[T]) any {
	if !o.Ok {
		return nil
	}
	return o.Val
}
