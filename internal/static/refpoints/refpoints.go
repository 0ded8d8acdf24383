// Package refpoints loads transit reference points (metro stations, GTFS
// stops, live vehicle positions) for the proximity analysis.
package refpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/caseybackes/galvanize-capstone-one/internal/proximity"
	gtfsstatic "github.com/caseybackes/galvanize-capstone-one/internal/static/gtfs"
)

// Load picks a loader by the form of path:
//
//	http(s)://...      GTFS-realtime feed fetched over HTTP
//	*.geojson, *.json  GeoJSON point features
//	*.pb               GTFS-realtime FeedMessage snapshot
//	*.zip, directory   static GTFS feed
func Load(ctx context.Context, path string) ([]proximity.Point, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return FetchFeed(ctx, http.DefaultClient, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	case ".pb":
		return LoadFeed(path)
	case ".zip":
		return LoadGTFS(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat reference points: %w", err)
	}
	if info.IsDir() {
		return LoadGTFS(path)
	}
	return nil, fmt.Errorf("unsupported reference point file %s", path)
}

// LoadGeoJSON reads point features. The id comes from the first of GIS_ID,
// id, stop_id, OBJECTID that is set (falling back to the feature index) and
// the name from NAME or name. Non-point features are ignored.
func LoadGeoJSON(path string) ([]proximity.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GeoJSON: %w", err)
	}

	var geojson struct {
		Features []struct {
			ID         any            `json:"id"`
			Properties map[string]any `json:"properties"`
			Geometry   struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}

	if err := json.Unmarshal(data, &geojson); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	var points []proximity.Point
	for i, f := range geojson.Features {
		if f.Geometry.Type != "Point" {
			continue
		}
		var coords []float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil || len(coords) < 2 {
			continue
		}

		id := firstProperty(f.Properties, "GIS_ID", "id", "stop_id", "OBJECTID")
		if id == "" && f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		if id == "" {
			id = fmt.Sprintf("feature-%d", i)
		}

		points = append(points, proximity.Point{
			ID:   id,
			Name: firstProperty(f.Properties, "NAME", "name", "stop_name"),
			Lon:  coords[0],
			Lat:  coords[1],
		})
	}

	log.Printf("Refpoints: loaded %d points from %s", len(points), path)
	return points, nil
}

func firstProperty(props map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = fmt.Sprintf("%.0f", t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// LoadGTFS reads the stations of a static GTFS feed
func LoadGTFS(path string) ([]proximity.Point, error) {
	feed, err := gtfsstatic.Parse(path)
	if err != nil {
		return nil, err
	}

	stops := feed.Stations()
	points := make([]proximity.Point, 0, len(stops))
	for _, s := range stops {
		points = append(points, proximity.Point{
			ID:   s.StopID,
			Name: s.StopName,
			Lat:  s.StopLat,
			Lon:  s.StopLon,
		})
	}

	log.Printf("Refpoints: loaded %d GTFS stations from %s", len(points), path)
	return points, nil
}

// LoadFeed reads a GTFS-realtime FeedMessage snapshot from disk
func LoadFeed(path string) ([]proximity.Point, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	points := FeedPoints(feed)
	log.Printf("Refpoints: loaded %d vehicle positions from %s", len(points), path)
	return points, nil
}

// FetchFeed downloads a GTFS-realtime vehicle positions feed
func FetchFeed(ctx context.Context, client *http.Client, url string) ([]proximity.Point, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	points := FeedPoints(feed)
	log.Printf("Refpoints: fetched %d vehicle positions from %s", len(points), url)
	return points, nil
}

// FeedPoints extracts vehicle positions from a feed. Entities without a
// position are skipped.
func FeedPoints(feed *gtfs.FeedMessage) []proximity.Point {
	var points []proximity.Point
	for _, entity := range feed.GetEntity() {
		vehicle := entity.GetVehicle()
		if vehicle == nil || vehicle.GetPosition() == nil {
			continue
		}
		pos := vehicle.GetPosition()
		if pos.Latitude == nil || pos.Longitude == nil {
			continue
		}

		id := "entity:" + entity.GetId()
		if vehicle.GetVehicle() != nil && vehicle.GetVehicle().GetId() != "" {
			id = vehicle.GetVehicle().GetId()
		}

		name := vehicle.GetStopId()
		if vehicle.GetVehicle() != nil && vehicle.GetVehicle().GetLabel() != "" {
			name = vehicle.GetVehicle().GetLabel()
		}

		points = append(points, proximity.Point{
			ID:   id,
			Name: name,
			Lat:  float64(pos.GetLatitude()),
			Lon:  float64(pos.GetLongitude()),
		})
	}
	return points
}
