// Package gtfs reads the stop list of a static GTFS feed.
package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Parse reads a GTFS feed from a zip file or an unpacked directory.
// stops.txt is required; agency.txt is optional.
func Parse(path string) (*Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat GTFS feed: %w", err)
	}

	var open func(name string) (io.ReadCloser, error)
	if info.IsDir() {
		open = func(name string) (io.ReadCloser, error) {
			return os.Open(filepath.Join(path, name))
		}
	} else {
		r, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open zip: %w", err)
		}
		defer r.Close()

		files := make(map[string]*zip.File)
		for _, f := range r.File {
			// some publishers nest the feed one directory deep
			files[filepath.Base(f.Name)] = f
		}
		open = func(name string) (io.ReadCloser, error) {
			f, ok := files[name]
			if !ok {
				return nil, os.ErrNotExist
			}
			return f.Open()
		}
	}

	feed := &Feed{}

	rc, err := open("stops.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to open stops.txt: %w", err)
	}
	feed.Stops, err = parseStops(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to parse stops.txt: %w", err)
	}

	if rc, err := open("agency.txt"); err == nil {
		agencies, err := parseAgencies(rc)
		rc.Close()
		if err != nil {
			log.Printf("Warning: failed to parse agency.txt: %v", err)
		} else {
			feed.Agency = agencies
		}
	}

	log.Printf("GTFS parsed: %d stops, %d agencies from %s", len(feed.Stops), len(feed.Agency), path)
	return feed, nil
}

func parseStops(r io.Reader) ([]Stop, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	if _, ok := idx["stop_id"]; !ok {
		return nil, fmt.Errorf("missing stop_id column")
	}
	var stops []Stop

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat, err := strconv.ParseFloat(getField(record, idx, "stop_lat"), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(getField(record, idx, "stop_lon"), 64)
		if err != nil {
			continue
		}
		locType, _ := strconv.Atoi(getField(record, idx, "location_type"))

		stops = append(stops, Stop{
			StopID:        getField(record, idx, "stop_id"),
			StopCode:      getField(record, idx, "stop_code"),
			StopName:      getField(record, idx, "stop_name"),
			StopLat:       lat,
			StopLon:       lon,
			LocationType:  locType,
			ParentStation: getField(record, idx, "parent_station"),
		})
	}

	return stops, nil
}

func parseAgencies(r io.Reader) ([]Agency, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	idx := makeIndex(header)
	var agencies []Agency

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		agencies = append(agencies, Agency{
			AgencyID:   getField(record, idx, "agency_id"),
			AgencyName: getField(record, idx, "agency_name"),
			AgencyURL:  getField(record, idx, "agency_url"),
		})
	}

	return agencies, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
