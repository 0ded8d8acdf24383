package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/caseybackes/galvanize-capstone-one/internal/stations"
)

// Manifest lists the files written by a run
type Manifest struct {
	RunID     string         `json:"run_id"`
	UpdatedAt string         `json:"updated_at"`
	Files     []ManifestFile `json:"files"`
	Viewport  *Viewport      `json:"viewport,omitempty"`
}

// ManifestFile is a file entry
type ManifestFile struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Checksum string `json:"checksum"`
}

// Viewport is the bounding box of the stations, for map clients
type Viewport struct {
	Center    Center       `json:"center"`
	MaxBounds [][2]float64 `json:"max_bounds"`
}

// Center is a map center
type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewManifest starts a manifest for a run
func NewManifest(runID string) *Manifest {
	return &Manifest{RunID: runID, Files: []ManifestFile{}}
}

// Add records a written file with the checksum of its contents
func (m *Manifest) Add(path, kind string, data []byte) {
	m.Files = append(m.Files, ManifestFile{
		Path:     filepath.ToSlash(path),
		Kind:     kind,
		Checksum: sha256Sum(data),
	})
}

// Write stores the manifest as manifest.json in dir
func (m *Manifest) Write(dir string) error {
	m.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	sort.SliceStable(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	if _, err := writeJSON(filepath.Join(dir, "manifest.json"), m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ComputeViewport returns the bounding box of all stations, or nil when
// there are none. max_bounds is [[minLon, minLat], [maxLon, maxLat]].
func ComputeViewport(list []stations.Station) *Viewport {
	if len(list) == 0 {
		return nil
	}
	minLat, maxLat := list[0].Latitude, list[0].Latitude
	minLon, maxLon := list[0].Longitude, list[0].Longitude
	for _, s := range list[1:] {
		minLat = min(minLat, s.Latitude)
		maxLat = max(maxLat, s.Latitude)
		minLon = min(minLon, s.Longitude)
		maxLon = max(maxLon, s.Longitude)
	}
	return &Viewport{
		Center:    Center{Lat: (minLat + maxLat) / 2, Lng: (minLon + maxLon) / 2},
		MaxBounds: [][2]float64{{minLon, minLat}, {maxLon, maxLat}},
	}
}

func sha256Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
