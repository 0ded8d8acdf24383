package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseybackes/galvanize-capstone-one/internal/storage"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("data "+n), 0644))
	}
}

func TestSelectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"201802-capitalbikeshare-tripdata.csv",
		"201801-capitalbikeshare-tripdata.csv",
		"Capital_Bike_Share_Locations.csv",
		"notes.txt",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "capitalbikeshare-archive"), 0755))

	files, err := SelectFiles(dir, DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "201801-capitalbikeshare-tripdata.csv"),
		filepath.Join(dir, "201802-capitalbikeshare-tripdata.csv"),
	}, files)

	all, err := SelectFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = SelectFiles(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		path, folder, saveAs, want string
	}{
		{"../data/trips.csv", "", "", "trips.csv"},
		{"../data/trips.csv", "2018", "", "2018/trips.csv"},
		{"../data/trips.csv", "2018/", "renamed.csv", "2018/renamed.csv"},
		{"trips.csv", "", "renamed.csv", "renamed.csv"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ObjectName(tc.path, tc.folder, tc.saveAs), tc)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "201801-capitalbikeshare-tripdata.csv", NormalizeName("../data/201801-capitalbikeshare-tripdata.csv.zip"))
	assert.Equal(t, "201801-capitalbikeshare-tripdata.csv", NormalizeName("201801-capitalbikeshare-tripdata.csv"))
	assert.Equal(t, "readme.csv", NormalizeName("readme"))
}

func openLocal(t *testing.T) (storage.Connection, string) {
	t.Helper()
	base := t.TempDir()
	conn, err := storage.Open(context.Background(), "test", storage.Config{Type: "local", BaseDir: base})
	require.NoError(t, err)
	return conn, base
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	conn, base := openLocal(t)

	dir := t.TempDir()
	writeFiles(t, dir, "trips.csv")

	object, err := Upload(ctx, conn, "capstone", filepath.Join(dir, "trips.csv"), "raw", "")
	require.NoError(t, err)
	assert.Equal(t, "raw/trips.csv", object)

	data, err := os.ReadFile(filepath.Join(base, "capstone", "raw", "trips.csv"))
	require.NoError(t, err)
	assert.Equal(t, "data trips.csv", string(data))

	_, err = Upload(ctx, conn, "capstone", filepath.Join(dir, "missing.csv"), "", "")
	assert.Error(t, err)
}

func TestBulkUpload(t *testing.T) {
	ctx := context.Background()
	conn, _ := openLocal(t)

	dir := t.TempDir()
	writeFiles(t, dir, "201801-capitalbikeshare-tripdata.csv.zip", "201802-capitalbikeshare-tripdata.csv")
	files := []string{
		filepath.Join(dir, "201801-capitalbikeshare-tripdata.csv.zip"),
		filepath.Join(dir, "201802-capitalbikeshare-tripdata.csv"),
		filepath.Join(dir, "gone-capitalbikeshare.csv"),
	}

	n, err := BulkUpload(ctx, conn, "capstone", DefaultFolder, files)
	assert.Equal(t, 2, n)
	require.Error(t, err)

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "capstone", "", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{
		"capitalbikeshare_tripdata/201801-capitalbikeshare-tripdata.csv",
		"capitalbikeshare_tripdata/201802-capitalbikeshare-tripdata.csv",
	}, names)

	rc, err := conn.Download(ctx, "capstone", names[0])
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data 201801-capitalbikeshare-tripdata.csv.zip", string(data))
}

func TestBulkUploadCancelled(t *testing.T) {
	conn, _ := openLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := BulkUpload(ctx, conn, "b", "", []string{"a.csv"})
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListContents(t *testing.T) {
	ctx := context.Background()
	conn, _ := openLocal(t)

	dir := t.TempDir()
	writeFiles(t, dir, "a.csv")
	_, err := Upload(ctx, conn, "capstone", filepath.Join(dir, "a.csv"), "x", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ListContents(ctx, conn, "capstone", "", &buf))
	assert.Equal(t, "capstone\n\t|___ x/a.csv\n", buf.String())
}
