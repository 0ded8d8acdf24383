// Package upload copies local trip files into object storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/caseybackes/galvanize-capstone-one/internal/storage"
)

// DefaultPattern selects the Capital Bikeshare trip history files
const DefaultPattern = "capitalbikeshare"

// DefaultFolder is the object prefix used by BulkUpload
const DefaultFolder = "capitalbikeshare_tripdata"

// SelectFiles returns the regular files in dir whose name contains pattern,
// sorted by name. An empty pattern selects every file.
func SelectFiles(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.Contains(e.Name(), pattern) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ObjectName builds the object key for a local file: folder/saveAs, where
// saveAs defaults to the file's base name and an empty folder adds no prefix.
func ObjectName(filePath, folder, saveAs string) string {
	name := saveAs
	if name == "" {
		name = filepath.Base(filePath)
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

// NormalizeName cuts everything after the first ".csv" so archives like
// "201801-capitalbikeshare-tripdata.csv.zip" are stored as
// "201801-capitalbikeshare-tripdata.csv". Names without ".csv" get it appended.
func NormalizeName(filePath string) string {
	base := filepath.Base(filePath)
	if i := strings.Index(base, ".csv"); i >= 0 {
		return base[:i] + ".csv"
	}
	return base + ".csv"
}

// Upload stores one local file and returns the object name it was stored as
func Upload(ctx context.Context, conn storage.Connection, bucket, filePath, folder, saveAs string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	object := ObjectName(filePath, folder, saveAs)
	if err := conn.Upload(ctx, bucket, object, f, contentType(object)); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filePath, err)
	}

	log.Printf("Upload: stored %s as %s in bucket <%s>", filePath, object, bucket)
	return object, nil
}

// BulkUpload stores every file under folder with a normalised name. It
// keeps going past failures and returns them together with the number of
// files stored.
func BulkUpload(ctx context.Context, conn storage.Connection, bucket, folder string, files []string) (int, error) {
	var result error
	uploaded := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if _, err := Upload(ctx, conn, bucket, file, folder, NormalizeName(file)); err != nil {
			log.Printf("Warning: %v", err)
			result = multierror.Append(result, err)
			continue
		}
		uploaded++
	}

	log.Printf("Upload: %d of %d files stored in bucket <%s>", uploaded, len(files), bucket)
	return uploaded, result
}

// ListContents writes the objects of a bucket, one per line
func ListContents(ctx context.Context, conn storage.Connection, bucket, prefix string, w io.Writer) error {
	fmt.Fprintln(w, bucket)
	return conn.ListObjects(ctx, bucket, prefix, func(name string) error {
		_, err := fmt.Fprintf(w, "\t|___ %s\n", name)
		return err
	})
}

func contentType(object string) string {
	if t := mime.TypeByExtension(path.Ext(object)); t != "" {
		return t
	}
	return "application/octet-stream"
}
