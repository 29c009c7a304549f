package prep

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/metrics"
)

// File names inside the raw directory.
const (
	TrackingGlob = "tracking_week*.csv"
	PlaysFile    = "plays.csv"
	PlayersFile  = "players.csv"
)

// RequiredTrackingColumns must be present in every tracking file.
var RequiredTrackingColumns = []string{
	"gameId", "playId", "nflId", "frameId", "x", "y", "s", "a", "o", "dir", "event",
}

const gameDateLayout = "20060102"

// TrackingRow is one validated tracking observation.
type TrackingRow struct {
	GameID  model.Opt[string]
	PlayID  model.Opt[string]
	NflID   model.Opt[string]
	FrameID model.Opt[int64]
	X, Y    model.Opt[float64]
	S, A    model.Opt[float64]
	O, Dir  model.Opt[float64]
	Event   string
	// PlayDirection is the raw value from the tracking file, if any.
	PlayDirection string
	// GameDate is derived from the first eight characters of gameId; zero
	// when they do not form a date.
	GameDate time.Time

	// Set by Normalize.
	Direction Direction
	XNorm     model.Opt[float64]
	YNorm     model.Opt[float64]
}

// Key returns the predictor entity key of the row.
func (r *TrackingRow) Key() model.Key {
	return model.Key{Game: r.GameID, Play: r.PlayID, Player: r.NflID}
}

// Position returns the normalized coordinates once Normalize has run and
// the raw coordinates before.
func (r *TrackingRow) Position() (x, y model.Opt[float64]) {
	if r.Direction == "" {
		return r.X, r.Y
	}
	return r.XNorm, r.YNorm
}

// TrackingFiles lists the tracking files in dir, sorted.
func TrackingFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, TrackingGlob))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s in %s", ErrMissingSourceFiles, TrackingGlob, dir)
	}
	sort.Strings(files)
	return files, nil
}

// LoadTracking reads and concatenates every tracking file in dir.
func LoadTracking(ctx context.Context, dir string) ([]TrackingRow, error) {
	files, err := TrackingFiles(dir)
	if err != nil {
		return nil, err
	}

	var out []TrackingRow
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := ReadCSVFile(path)
		if err != nil {
			return nil, err
		}
		if missing := t.Missing(RequiredTrackingColumns); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", ErrMissingColumns, filepath.Base(path), strings.Join(missing, ", "))
		}
		out = append(out, trackingRows(t)...)
		metrics.RecordPrepRows("tracking", len(t.Rows))
	}
	return out, nil
}

func trackingRows(t *Table) []TrackingRow {
	rows := make([]TrackingRow, len(t.Rows))
	for i := range t.Rows {
		game := model.Ident(t.Get(i, "gameId"))
		rows[i] = TrackingRow{
			GameID:        game,
			PlayID:        model.Ident(t.Get(i, "playId")),
			NflID:         model.Ident(t.Get(i, "nflId")),
			FrameID:       model.Int(t.Get(i, "frameId")),
			X:             model.Float(t.Get(i, "x")),
			Y:             model.Float(t.Get(i, "y")),
			S:             model.Float(t.Get(i, "s")),
			A:             model.Float(t.Get(i, "a")),
			O:             model.Float(t.Get(i, "o")),
			Dir:           model.Float(t.Get(i, "dir")),
			Event:         strings.TrimSpace(t.Get(i, "event")),
			PlayDirection: strings.ToLower(strings.TrimSpace(t.Get(i, "playDirection"))),
			GameDate:      gameDate(game),
		}
	}
	return rows
}

func gameDate(game model.Opt[string]) time.Time {
	if !game.Ok || len(game.Val) < len(gameDateLayout) {
		return time.Time{}
	}
	d, err := time.Parse(gameDateLayout, game.Val[:len(gameDateLayout)])
	if err != nil {
		return time.Time{}
	}
	return d
}

// LoadPlays reads plays.csv from dir.
func LoadPlays(_ context.Context, dir string) (*Table, error) {
	return loadTable(dir, PlaysFile, "plays")
}

// LoadPlayers reads players.csv from dir.
func LoadPlayers(_ context.Context, dir string) (*Table, error) {
	return loadTable(dir, PlayersFile, "players")
}

func loadTable(dir, name, source string) (*Table, error) {
	t, err := ReadCSVFile(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	metrics.RecordPrepRows(source, len(t.Rows))
	return t, nil
}
