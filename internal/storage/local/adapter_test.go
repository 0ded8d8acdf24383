package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "buckets")

	a, err := New(base, "", "test")
	require.NoError(t, err)
	assert.Equal(t, "local", a.Type())
	assert.Equal(t, "test", a.Name())

	require.NoError(t, a.Upload(ctx, "capstone", "trips/201801.csv", strings.NewReader("a,b\n1,2\n"), "text/csv"))
	require.NoError(t, a.Upload(ctx, "capstone", "trips/201802.csv", strings.NewReader("x"), "text/csv"))
	require.NoError(t, a.Upload(ctx, "capstone", "other.txt", strings.NewReader("y"), "text/plain"))

	_, err = os.Stat(filepath.Join(base, "capstone", "trips", "201801.csv"))
	require.NoError(t, err)

	rc, err := a.Download(ctx, "capstone", "trips/201801.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	var names []string
	require.NoError(t, a.ListObjects(ctx, "capstone", "trips/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"trips/201801.csv", "trips/201802.csv"}, names)

	require.NoError(t, a.DeleteObject(ctx, "capstone", "trips/201801.csv"))
	require.NoError(t, a.DeleteObject(ctx, "capstone", "trips/201801.csv"))

	_, err = a.Download(ctx, "capstone", "trips/201801.csv")
	assert.Error(t, err)
}

func TestAdapterDefaultBucket(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()

	a, err := New(base, "default-bucket", "test")
	require.NoError(t, err)
	require.NoError(t, a.Upload(ctx, "", "file.csv", strings.NewReader("z"), "text/csv"))

	_, err = os.Stat(filepath.Join(base, "default-bucket", "file.csv"))
	assert.NoError(t, err)
}

func TestAdapterRejectsEscapes(t *testing.T) {
	a, err := New(t.TempDir(), "", "test")
	require.NoError(t, err)

	err = a.Upload(context.Background(), "b", "../../evil.csv", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestListMissingBucket(t *testing.T) {
	a, err := New(t.TempDir(), "", "test")
	require.NoError(t, err)

	called := false
	require.NoError(t, a.ListObjects(context.Background(), "none", "", func(string) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestNewRequiresDirectory(t *testing.T) {
	_, err := New("", "", "test")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = New(file, "", "test")
	assert.Error(t, err)
}
