package prep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// NormalizedFile is the output name of the normalized tracking table.
const NormalizedFile = "tracking_normalized.parquet"

const parquetParallelism = 4

// Record is one row of the normalized tracking parquet file. Raw positions
// are kept next to the normalized ones.
type Record struct {
	GameID        *string  `parquet:"name=gameId, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	PlayID        *string  `parquet:"name=playId, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NflID         *string  `parquet:"name=nflId, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	FrameID       *int64   `parquet:"name=frameId, type=INT64, repetitiontype=OPTIONAL"`
	X             *float64 `parquet:"name=x, type=DOUBLE, repetitiontype=OPTIONAL"`
	Y             *float64 `parquet:"name=y, type=DOUBLE, repetitiontype=OPTIONAL"`
	S             *float64 `parquet:"name=s, type=DOUBLE, repetitiontype=OPTIONAL"`
	A             *float64 `parquet:"name=a, type=DOUBLE, repetitiontype=OPTIONAL"`
	O             *float64 `parquet:"name=o, type=DOUBLE, repetitiontype=OPTIONAL"`
	Dir           *float64 `parquet:"name=dir, type=DOUBLE, repetitiontype=OPTIONAL"`
	Event         string   `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlayDirection string   `parquet:"name=playDirection, type=BYTE_ARRAY, convertedtype=UTF8"`
	GameDate      *int32   `parquet:"name=game_date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	XNorm         *float64 `parquet:"name=x_n, type=DOUBLE, repetitiontype=OPTIONAL"`
	YNorm         *float64 `parquet:"name=y_n, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// NewRecord converts a tracking row into its parquet form.
func NewRecord(r *TrackingRow) Record {
	rec := Record{
		GameID:        r.GameID.Ptr(),
		PlayID:        r.PlayID.Ptr(),
		NflID:         r.NflID.Ptr(),
		FrameID:       r.FrameID.Ptr(),
		X:             r.X.Ptr(),
		Y:             r.Y.Ptr(),
		S:             r.S.Ptr(),
		A:             r.A.Ptr(),
		O:             r.O.Ptr(),
		Dir:           r.Dir.Ptr(),
		Event:         r.Event,
		PlayDirection: string(r.Direction),
		XNorm:         r.XNorm.Ptr(),
		YNorm:         r.YNorm.Ptr(),
	}
	if !r.GameDate.IsZero() {
		days := int32(r.GameDate.Sub(time.Unix(0, 0).UTC()).Hours() / 24)
		rec.GameDate = &days
	}
	return rec
}

// WriteParquet writes rows to dir/name, creating dir when needed, and
// returns the file path.
func WriteParquet(ctx context.Context, dir, name string, rows []TrackingRow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := encodeParquet(ctx, fw, rows); err != nil {
		return "", err
	}
	return path, nil
}

// encodeParquet writes rows to fw and always closes it. A close failure is
// reported when nothing failed before it.
func encodeParquet(ctx context.Context, fw source.ParquetFile, rows []TrackingRow) (err error) {
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(Record), parquetParallelism)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				_ = pw.WriteStop()
				return err
			}
		}
		if err := pw.Write(NewRecord(&rows[i])); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}
