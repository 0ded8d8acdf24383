package export

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/caseybackes/galvanize-capstone-one/internal/popularity"
	"github.com/caseybackes/galvanize-capstone-one/internal/storage"
)

// PopularityRecord is the Parquet row layout of a top-N entry
type PopularityRecord struct {
	RunID          string   `parquet:"name=run_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	Window         string   `parquet:"name=window,type=BYTE_ARRAY,convertedtype=UTF8"`
	Rank           int32    `parquet:"name=rank,type=INT32"`
	TerminalNumber string   `parquet:"name=terminal_number,type=BYTE_ARRAY,convertedtype=UTF8"`
	RideCount      int64    `parquet:"name=ride_count,type=INT64"`
	Latitude       *float64 `parquet:"name=latitude,type=DOUBLE,repetitiontype=OPTIONAL"`
	Longitude      *float64 `parquet:"name=longitude,type=DOUBLE,repetitiontype=OPTIONAL"`
	Address        string   `parquet:"name=address,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// PopularityRecords flattens the top-N tables of every window
func PopularityRecords(runID string, windows []string, tops map[string][]popularity.StationPopularity) []PopularityRecord {
	var out []PopularityRecord
	for _, w := range windows {
		for _, p := range tops[w] {
			rec := PopularityRecord{
				RunID:          runID,
				Window:         w,
				Rank:           int32(p.Rank),
				TerminalNumber: p.TerminalNumber,
				RideCount:      int64(p.RideCount),
				Address:        p.Address,
			}
			if p.Location != nil {
				lat, lon := p.Location.Latitude, p.Location.Longitude
				rec.Latitude = &lat
				rec.Longitude = &lon
			}
			out = append(out, rec)
		}
	}
	return out
}

// EncodePopularity encodes records as a Snappy-compressed Parquet file
func EncodePopularity(records []PopularityRecord) (data []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(PopularityRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	// WriteStop can panic on malformed schemas
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("failed to stop parquet writer: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to stop parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// WritePopularityParquet encodes records and uploads them as bucket/object
func WritePopularityParquet(ctx context.Context, conn storage.Connection, bucket, object string, records []PopularityRecord) ([]byte, error) {
	data, err := EncodePopularity(records)
	if err != nil {
		return nil, err
	}
	if err := conn.Upload(ctx, bucket, object, bytes.NewReader(data), "application/x-parquet"); err != nil {
		return nil, fmt.Errorf("failed to upload parquet file %s: %w", object, err)
	}
	log.Printf("Export: wrote %d popularity records (%d bytes) to %s via %s storage", len(records), len(data), object, conn.Type())
	return data, nil
}
