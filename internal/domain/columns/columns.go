// Package columns resolves which physical columns of a batch carry each
// field role and extracts typed observations from rows.
package columns

import "github.com/okian/trackcast/internal/domain/model"

// Role is a canonical field role.
type Role int

// Roles resolved for every batch.
const (
	Game Role = iota
	Play
	Player
	Frame
	PrevFrame
	X
	Y
	DT
	numRoles
)

// Candidates lists the accepted physical names per role, in priority order.
var Candidates = [numRoles][]string{
	Game:      {"gameId"},
	Play:      {"playId"},
	Player:    {"nflId"},
	Frame:     {"frameId"},
	PrevFrame: {"prevFrameId"},
	X:         {"x"},
	Y:         {"y"},
	DT:        {"dt", "delta_t", "frame_dt"},
}

func (r Role) String() string {
	switch r {
	case Game:
		return "game"
	case Play:
		return "play"
	case Player:
		return "player"
	case Frame:
		return "frame"
	case PrevFrame:
		return "prev_frame"
	case X:
		return "x"
	case Y:
		return "y"
	case DT:
		return "dt"
	default:
		return "unknown"
	}
}

// Resolver maps roles to column indexes for one batch. A missing column has
// index -1.
type Resolver struct {
	idx [numRoles]int
}

// Resolve inspects the column set once. Duplicate column names resolve to
// the first occurrence.
func Resolve(cols []string) *Resolver {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := pos[c]; !dup {
			pos[c] = i
		}
	}
	r := &Resolver{}
	for role := Role(0); role < numRoles; role++ {
		r.idx[role] = -1
		for _, name := range Candidates[role] {
			if i, ok := pos[name]; ok {
				r.idx[role] = i
				break
			}
		}
	}
	return r
}

// Has reports whether the batch carries a column for role.
func (r *Resolver) Has(role Role) bool { return r.idx[role] >= 0 }

// Column returns the resolved physical column name for role, or "".
func (r *Resolver) Column(cols []string, role Role) string {
	if !r.Has(role) || r.idx[role] >= len(cols) {
		return ""
	}
	return cols[r.idx[role]]
}

func (r *Resolver) cell(row []any, role Role) any {
	i := r.idx[role]
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// Extract reads one row. Missing columns, short rows and unparseable cells
// produce absent fields; it never fails.
func (r *Resolver) Extract(row []any) model.Observation {
	return model.Observation{
		Key: model.Key{
			Game:   model.Ident(r.cell(row, Game)),
			Play:   model.Ident(r.cell(row, Play)),
			Player: model.Ident(r.cell(row, Player)),
		},
		X:         model.Float(r.cell(row, X)),
		Y:         model.Float(r.cell(row, Y)),
		Frame:     model.Int(r.cell(row, Frame)),
		PrevFrame: model.Int(r.cell(row, PrevFrame)),
		DT:        model.Float(r.cell(row, DT)),
	}
}

// ExtractAll resolves b once and extracts every row in order.
func ExtractAll(b model.Batch) []model.Observation {
	r := Resolve(b.Columns)
	out := make([]model.Observation, len(b.Rows))
	for i, row := range b.Rows {
		out[i] = r.Extract(row)
	}
	return out
}
