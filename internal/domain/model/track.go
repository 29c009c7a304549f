package model

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key identifies one tracked trajectory. Absent components are part of the
// identity: a key with no player id is a different bucket from any key that
// has one.
type Key struct {
	Game   Opt[string] `json:"gameId"`
	Play   Opt[string] `json:"playId"`
	Player Opt[string] `json:"nflId"`
}

// String renders the key as game/play/player with "-" for absent parts.
func (k Key) String() string {
	part := func(o Opt[string]) string {
		if !o.Ok {
			return "-"
		}
		return o.Val
	}
	return part(k.Game) + "/" + part(k.Play) + "/" + part(k.Player)
}

// Hash returns a stable hash of the key. Absent and empty components hash
// differently.
func (k Key) Hash() uint64 {
	var b strings.Builder
	for _, o := range []Opt[string]{k.Game, k.Play, k.Player} {
		if o.Ok {
			b.WriteByte('+')
			b.WriteString(o.Val)
		} else {
			b.WriteByte('~')
		}
		b.WriteByte(0)
	}
	return xxhash.Sum64String(b.String())
}

// State is the motion state carried for one key between rows.
type State struct {
	X     Opt[float64] `json:"x"`
	Y     Opt[float64] `json:"y"`
	VX    float64      `json:"vx"`
	VY    float64      `json:"vy"`
	Frame Opt[int64]   `json:"frame"`
}

// HasPosition reports whether both coordinates are known.
func (s State) HasPosition() bool { return s.X.Ok && s.Y.Ok }

// Observation is one incoming row after column resolution.
type Observation struct {
	Key       Key
	X         Opt[float64]
	Y         Opt[float64]
	Frame     Opt[int64]
	PrevFrame Opt[int64]
	DT        Opt[float64]
}

// HasPosition reports whether both coordinates were observed.
func (o Observation) HasPosition() bool { return o.X.Ok && o.Y.Ok }

// Point is a predicted position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Batch is a tabular request. Column presence varies between calls; a row
// holds one cell per column and nil marks a null cell.
type Batch struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (b Batch) Len() int { return len(b.Rows) }
