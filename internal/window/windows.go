package window

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caseybackes/galvanize-capstone-one/internal/trips"
)

// Window is a named time-of-day interval. Start is always inclusive; End
// is inclusive only when IncludeEnd is set, so adjacent windows can share
// a boundary without counting a ride twice.
type Window struct {
	Name       string    `yaml:"name" json:"name"`
	Start      TimeOfDay `yaml:"start" json:"start"`
	End        TimeOfDay `yaml:"end" json:"end"`
	IncludeEnd bool      `yaml:"include_end" json:"includeEnd"`
}

// Defaults returns the Morning, Afternoon and Evening windows
func Defaults() []Window {
	return []Window{
		{Name: "Morning", Start: At(4, 0, 0), End: At(9, 0, 0)},
		{Name: "Afternoon", Start: At(9, 0, 0), End: At(15, 0, 0)},
		{Name: "Evening", Start: At(15, 0, 0), End: At(23, 59, 59), IncludeEnd: true},
	}
}

// Validate checks the bounds of the window
func (w Window) Validate() error {
	if !w.Start.Valid() {
		return fmt.Errorf("window %s start %d: %w", w.Name, int(w.Start), ErrInvalidTimeOfDay)
	}
	if !w.End.Valid() {
		return fmt.Errorf("window %s end %d: %w", w.Name, int(w.End), ErrInvalidTimeOfDay)
	}
	if w.Start > w.End {
		return fmt.Errorf("window %s %s-%s: %w", w.Name, w.Start, w.End, ErrEmptyWindow)
	}
	return nil
}

// Contains reports whether t falls in the window
func (w Window) Contains(t TimeOfDay) bool {
	if t < w.Start {
		return false
	}
	if w.IncludeEnd {
		return t <= w.End
	}
	return t < w.End
}

// Apply returns a new slice of the rides that fall in the window
func (w Window) Apply(rides []trips.Ride, column Column) ([]trips.Ride, error) {
	if column != StartTime && column != EndTime {
		return nil, fmt.Errorf("column %d: %w", int(column), ErrUnknownColumn)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var out []trips.Ride
	for _, r := range rides {
		t, ok := column.value(r)
		if ok && w.Contains(t) {
			out = append(out, r)
		}
	}
	return out, nil
}

// windowsFile is the YAML layout of a window definition file:
//
//	windows:
//	  - name: Morning
//	    start: "04:00"
//	    end: "09:00"
type windowsFile struct {
	Windows []Window `yaml:"windows"`
}

// LoadFile reads window definitions from a YAML file
func LoadFile(path string) ([]Window, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read windows file: %w", err)
	}

	var f windowsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse windows file: %w", err)
	}
	if len(f.Windows) == 0 {
		return nil, fmt.Errorf("windows file %s defines no windows", path)
	}

	names := make(map[string]bool)
	for _, w := range f.Windows {
		if w.Name == "" {
			return nil, fmt.Errorf("windows file %s: window without a name", path)
		}
		if names[w.Name] {
			return nil, fmt.Errorf("windows file %s: duplicate window %s", path, w.Name)
		}
		names[w.Name] = true
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Windows, nil
}
