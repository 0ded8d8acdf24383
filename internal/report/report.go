// Package report prints analysis results as plain-text tables and charts.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/caseybackes/galvanize-capstone-one/internal/metrics"
	"github.com/caseybackes/galvanize-capstone-one/internal/popularity"
	"github.com/caseybackes/galvanize-capstone-one/internal/proximity"
)

// Arg is one command-line setting echoed by PrintArgs
type Arg struct {
	Name  string
	Value any
}

// PrintArgs echoes the effective command-line settings
func PrintArgs(w io.Writer, args []Arg) {
	fmt.Fprintln(w, "Arguments:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, a := range args {
		fmt.Fprintf(tw, "  --%s\t%v\n", a.Name, a.Value)
	}
	tw.Flush()
}

// Summary describes what the loader and join produced
type Summary struct {
	Files        int
	Rows         int
	Rides        int
	Dropped      int
	Unmatched    []string
	Stations     int
	WindowCounts []WindowCount
}

// WindowCount is the number of rides in one window
type WindowCount struct {
	Window string
	Rides  int
}

// PrintSummary prints the row counts of the run
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "Loaded %d rows from %d files; %d stations in reference table\n", s.Rows, s.Files, s.Stations)
	fmt.Fprintf(w, "Rides with a known start station: %d (dropped %d)\n", s.Rides, s.Dropped)
	if len(s.Unmatched) > 0 {
		shown := s.Unmatched
		more := ""
		if len(shown) > 10 {
			more = fmt.Sprintf(" (+%d more)", len(shown)-10)
			shown = shown[:10]
		}
		fmt.Fprintf(w, "Unknown start stations: %s%s\n", strings.Join(shown, ", "), more)
	}
	for _, wc := range s.WindowCounts {
		fmt.Fprintf(w, "  %-10s %d rides\n", wc.Window, wc.Rides)
	}
}

// PrintPopular prints the top-N table of a window
func PrintPopular(w io.Writer, window string, top []popularity.StationPopularity) {
	fmt.Fprintf(w, "\nTop %d stations, %s\n", len(top), window)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTERMINAL\tRIDES\tLATITUDE\tLONGITUDE\tADDRESS")
	for _, p := range top {
		lat, lon := "-", "-"
		if p.Location != nil {
			lat = fmt.Sprintf("%.6f", p.Location.Latitude)
			lon = fmt.Sprintf("%.6f", p.Location.Longitude)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", p.Rank, p.TerminalNumber, p.RideCount, lat, lon, p.Address)
	}
	tw.Flush()
}

// barWidth is the width of the longest bar in characters
const barWidth = 50

// PrintStackedBars draws one bar per station, split by window. Stations are
// taken from every window's top-N and ordered by total rides. Each window
// gets the first letter of its name as the bar glyph.
func PrintStackedBars(w io.Writer, windows []string, counts map[string]map[string]int, tops map[string][]popularity.StationPopularity) {
	type row struct {
		terminal string
		address  string
		parts    []int
		total    int
	}

	seen := make(map[string]bool)
	var rows []row
	for _, win := range windows {
		for _, p := range tops[win] {
			if seen[p.TerminalNumber] {
				continue
			}
			seen[p.TerminalNumber] = true
			r := row{terminal: p.TerminalNumber, address: p.Address}
			for _, win2 := range windows {
				n := counts[win2][p.TerminalNumber]
				r.parts = append(r.parts, n)
				r.total += n
			}
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].total > rows[j].total })

	maxTotal := 0
	for _, r := range rows {
		maxTotal = max(maxTotal, r.total)
	}

	glyphs := make([]string, len(windows))
	legend := make([]string, len(windows))
	for i, win := range windows {
		g := "#"
		if win != "" {
			g = strings.ToUpper(win[:1])
		}
		glyphs[i] = g
		legend[i] = g + "=" + win
	}

	fmt.Fprintf(w, "\nRides per station by time of day (%s)\n", strings.Join(legend, " "))
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for _, r := range rows {
		var bar strings.Builder
		for i, n := range r.parts {
			bar.WriteString(strings.Repeat(glyphs[i], scale(n, maxTotal)))
		}
		fmt.Fprintf(tw, "%s\t%s\t|%s\t%d\n", r.terminal, truncate(r.address, 32), bar.String(), r.total)
	}
	tw.Flush()
}

func scale(n, maxTotal int) int {
	if maxTotal == 0 || n == 0 {
		return 0
	}
	width := n * barWidth / maxTotal
	if width == 0 {
		width = 1
	}
	return width
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

// PrintHistograms prints rides per start hour for each terminal, in the
// given order
func PrintHistograms(w io.Writer, window string, terminals []string, hist map[string][24]int) {
	fmt.Fprintf(w, "\nRides per hour, %s\n", window)
	for _, t := range terminals {
		h := hist[t]
		peak := 0
		for _, n := range h {
			peak = max(peak, n)
		}
		fmt.Fprintf(w, "%s\n", t)
		for hour, n := range h {
			if n == 0 {
				continue
			}
			fmt.Fprintf(w, "  %02d:00 %-20s %d\n", hour, strings.Repeat("*", scaleTo(n, peak, 20)), n)
		}
	}
}

func scaleTo(n, peak, width int) int {
	if peak == 0 {
		return 0
	}
	v := n * width / peak
	if v == 0 && n > 0 {
		v = 1
	}
	return v
}

// PrintBikeReports prints the most used bikes
func PrintBikeReports(w io.Writer, reports []popularity.BikeReport) {
	fmt.Fprintf(w, "\nTop %d bikes by time in use\n", len(reports))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BIKE\tTRIPS\tLIFETIME")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", r.BikeNumber, r.Trips, r.Lifetime)
	}
	tw.Flush()
}

// PrintProximity prints the near/not-near partition and the usage comparison.
// names maps reference ids to display names and may be nil.
func PrintProximity(w io.Writer, res *proximity.Result, cmp proximity.CohortComparison, names map[string]string) {
	fmt.Fprintf(w, "\nStations within %.0f m (%.2f mi) of a transit reference point\n",
		res.ThresholdMeters, proximity.MetersToMiles(res.ThresholdMeters))

	refs := make([]string, 0, len(res.Matches))
	for id, m := range res.Matches {
		if len(m) > 0 {
			refs = append(refs, id)
		}
	}
	sort.Strings(refs)

	for _, id := range refs {
		label := id
		if n := names[id]; n != "" {
			label = n
		}
		fmt.Fprintf(w, "  %s\n", label)
		for _, m := range res.Matches[id] {
			fmt.Fprintf(w, "    %-8s %6.0f m\n", m.StationID, m.DistanceMeters)
		}
	}

	fmt.Fprintf(w, "Near: %d stations, %d rides, %.1f rides/station\n", cmp.NearStations, cmp.NearRides, cmp.NearMean)
	fmt.Fprintf(w, "Not near: %d stations, %d rides, %.1f rides/station\n", cmp.NotNearStations, cmp.NotNearRides, cmp.NotNearMean)
	if cmp.Ratio > 0 {
		fmt.Fprintf(w, "Near stations see %.2fx the rides of other stations\n", cmp.Ratio)
	}
}

// PrintStationStats prints hourly ride statistics for one station and weekday
func PrintStationStats(w io.Writer, terminal string, weekday time.Weekday, rows []metrics.HourStat) {
	fmt.Fprintf(w, "\nStation %s, %s: rides per hour across dates\n", terminal, weekday)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "HOUR\tDAYS\tMEAN\tMEDIAN\tVARIANCE\t")
	for _, r := range rows {
		if r.Samples == 0 {
			continue
		}
		fmt.Fprintf(tw, "%02d\t%d\t%.2f\t%.1f\t%.2f\t\n", r.Hour, r.Samples, r.Mean, r.Median, r.Variance)
	}
	tw.Flush()
}
