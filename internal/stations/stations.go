// Package stations loads the dock reference table and joins it onto rides.
package stations

import (
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/mitchellh/mapstructure"

	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

// Station represents a dock from the Capital Bike Share Locations file
type Station struct {
	TerminalNumber string  `mapstructure:"TERMINAL_NUMBER" json:"terminalNumber"`
	Address        string  `mapstructure:"ADDRESS" json:"address"`
	Latitude       float64 `mapstructure:"LATITUDE" json:"latitude"`
	Longitude      float64 `mapstructure:"LONGITUDE" json:"longitude"`
}

// Location returns the station position in the form carried on rides
func (s Station) Location() *trips.Location {
	return &trips.Location{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Address:   s.Address,
	}
}

// Index is the read-only station table keyed by terminal number.
// Keys and addresses are stored trimmed; the locations export pads some
// addresses with trailing spaces.
type Index struct {
	byTerminal map[string]Station
	order      []string
}

// NewIndex builds an index. Later duplicates of a terminal are ignored.
func NewIndex(list []Station) *Index {
	idx := &Index{byTerminal: make(map[string]Station, len(list))}
	for _, s := range list {
		s.TerminalNumber = strings.TrimSpace(s.TerminalNumber)
		s.Address = strings.TrimSpace(s.Address)
		if s.TerminalNumber == "" {
			continue
		}
		if _, dup := idx.byTerminal[s.TerminalNumber]; dup {
			continue
		}
		idx.byTerminal[s.TerminalNumber] = s
		idx.order = append(idx.order, s.TerminalNumber)
	}
	return idx
}

// Lookup returns the station for a terminal number
func (idx *Index) Lookup(terminal string) (Station, bool) {
	s, ok := idx.byTerminal[strings.TrimSpace(terminal)]
	return s, ok
}

// Address returns the trimmed address for a terminal, or "" if unknown
func (idx *Index) Address(terminal string) string {
	s, _ := idx.Lookup(terminal)
	return s.Address
}

// All returns stations in file order
func (idx *Index) All() []Station {
	out := make([]Station, 0, len(idx.order))
	for _, t := range idx.order {
		out = append(out, idx.byTerminal[t])
	}
	return out
}

// Len returns the number of stations
func (idx *Index) Len() int {
	return len(idx.order)
}

// Load reads the station locations CSV. Only the TERMINAL_NUMBER,
// LATITUDE, LONGITUDE and ADDRESS columns are used.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open station locations: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse station locations: %w", df.Err)
	}

	list, err := FromTable(df)
	if err != nil {
		return nil, err
	}

	idx := NewIndex(list)
	log.Printf("Stations: loaded %d stations from %s", idx.Len(), path)
	return idx, nil
}

// FromTable decodes station rows from a table
func FromTable(df dataframe.DataFrame) ([]Station, error) {
	required := map[string]bool{"TERMINAL_NUMBER": false, "LATITUDE": false, "LONGITUDE": false}
	for _, name := range df.Names() {
		if _, ok := required[name]; ok {
			required[name] = true
		}
	}
	for name, found := range required {
		if !found {
			return nil, fmt.Errorf("station locations missing column %s", name)
		}
	}

	rows := df.Maps()
	list := make([]Station, 0, len(rows))
	for i, row := range rows {
		for _, col := range []string{"LATITUDE", "LONGITUDE"} {
			if blankCell(row[col]) {
				return nil, fmt.Errorf("station row %d (terminal %v): %s is empty", i+1, row["TERMINAL_NUMBER"], col)
			}
		}

		var s Station
		if err := mapstructure.WeakDecode(row, &s); err != nil {
			return nil, fmt.Errorf("station row %d: %w", i+1, err)
		}
		if math.IsNaN(s.Latitude) || math.IsNaN(s.Longitude) {
			return nil, fmt.Errorf("station row %d (terminal %s): coordinates are not numbers", i+1, s.TerminalNumber)
		}
		list = append(list, s)
	}
	return list, nil
}

// blankCell reports whether a decoded cell holds no value. Weak decoding
// would turn such a cell into 0.
func blankCell(v interface{}) bool {
	if v == nil {
		return true
	}
	str := strings.TrimSpace(fmt.Sprint(v))
	return str == "" || strings.EqualFold(str, "NaN") || strings.EqualFold(str, "NA")
}
