package trips

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// LoadDir reads the trip files in dir into a single table. Files are read
// in lexical order and limit caps how many are read (0 or less means all).
// Columns missing from some files are kept and hold NA for those rows.
func LoadDir(dir string, limit int) (dataframe.DataFrame, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("failed to read data directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".txt" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	if limit > 0 && limit < len(files) {
		files = files[:limit]
	}
	if len(files) == 0 {
		return dataframe.DataFrame{}, 0, fmt.Errorf("no trip files found in %s", dir)
	}

	log.Println("Loader: stacking trip files...")

	frames := make([]dataframe.DataFrame, 0, len(files))
	for i, path := range files {
		df, err := ReadFile(path)
		if err != nil {
			return dataframe.DataFrame{}, 0, err
		}
		frames = append(frames, df)
		log.Printf("Loader: read file #%d (%s, %d rows)", i+1, filepath.Base(path), df.Nrow())
	}

	table, err := stack(frames)
	if err != nil {
		return dataframe.DataFrame{}, 0, err
	}

	log.Printf("Loader: %.2fM rows with %d columns from %d files",
		float64(table.Nrow())/1e6, table.Ncol(), len(files))
	return table, len(files), nil
}

// stack concatenates frames in order. Neighbours are merged pairwise so
// every row is copied O(log n) times rather than once per later file.
func stack(frames []dataframe.DataFrame) (dataframe.DataFrame, error) {
	for len(frames) > 1 {
		merged := make([]dataframe.DataFrame, 0, (len(frames)+1)/2)
		for i := 0; i < len(frames); i += 2 {
			if i+1 == len(frames) {
				merged = append(merged, frames[i])
				continue
			}
			df := frames[i].Concat(frames[i+1])
			if df.Err != nil {
				return dataframe.DataFrame{}, fmt.Errorf("failed to stack trip files: %w", df.Err)
			}
			merged = append(merged, df)
		}
		frames = merged
	}
	return frames[0], nil
}

// ReadFile parses one delimited trip file. Every column is read as a
// string so that terminal numbers keep their leading zeros.
func ReadFile(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), df.Err)
	}
	return df, nil
}

// FromTable converts a loaded trip table into rides. A row whose start
// date cannot be parsed makes the whole conversion fail.
func FromTable(df dataframe.DataFrame) ([]Ride, error) {
	cols := newColumnSet(df)
	if !cols.has(colStartDate) {
		return nil, fmt.Errorf("trip table has no start date column (looked for %s)", strings.Join(colStartDate, ", "))
	}

	rides := make([]Ride, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		startedAt, err := ParseTimestamp(cols.value(colStartDate, i))
		if err != nil {
			return nil, fmt.Errorf("row %d: start date: %w", i+1, err)
		}

		ride := Ride{
			StartedAt:        startedAt,
			StartStation:     cols.value(colStartStation, i),
			EndStation:       cols.value(colEndStation, i),
			StartStationName: cols.value(colStartName, i),
			EndStationName:   cols.value(colEndName, i),
			BikeNumber:       cols.value(colBike, i),
			MemberType:       cols.value(colMemberType, i),
		}

		if raw := cols.value(colEndDate, i); raw != "" {
			if endedAt, err := ParseTimestamp(raw); err == nil {
				ride.EndedAt = endedAt
			}
		}

		if raw := cols.value(colDuration, i); raw != "" {
			if d, err := strconv.ParseFloat(raw, 64); err == nil {
				ride.Duration = int(math.Round(d))
			}
		} else if !ride.EndedAt.IsZero() {
			// newer exports dropped the duration column
			ride.Duration = int(ride.EndedAt.Sub(ride.StartedAt) / time.Second)
		}

		rides = append(rides, ride)
	}
	return rides, nil
}

// ParseTimestamp parses the date formats seen across the trip exports
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// columnSet resolves column aliases against a table once
type columnSet struct {
	df    dataframe.DataFrame
	names map[string]bool
	cache map[string]series.Series
}

func newColumnSet(df dataframe.DataFrame) *columnSet {
	names := make(map[string]bool)
	for _, n := range df.Names() {
		names[n] = true
	}
	return &columnSet{df: df, names: names, cache: make(map[string]series.Series)}
}

func (c *columnSet) has(aliases []string) bool {
	_, ok := c.resolve(aliases)
	return ok
}

func (c *columnSet) resolve(aliases []string) (string, bool) {
	for _, name := range aliases {
		if c.names[name] {
			return name, true
		}
	}
	return "", false
}

// value returns the trimmed cell for the first alias present in the table
// whose cell is not NA, or "" when none is.
func (c *columnSet) value(aliases []string, row int) string {
	for _, name := range aliases {
		if !c.names[name] {
			continue
		}
		s, ok := c.cache[name]
		if !ok {
			s = c.df.Col(name)
			c.cache[name] = s
		}
		elem := s.Elem(row)
		if elem.IsNA() {
			continue
		}
		if v := strings.TrimSpace(elem.String()); v != "" {
			return v
		}
	}
	return ""
}
