// Command upload copies local trip history files into a storage bucket.
//
// With --file a single file is stored as save-as at the bucket root, or
// under --folder when it is given. Otherwise every
// file in --dir whose name contains --match is stored under --folder with
// its name cut after ".csv".
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/caseybackes/galvanize-capstone-one/internal/config"
	"github.com/caseybackes/galvanize-capstone-one/internal/storage"
	"github.com/caseybackes/galvanize-capstone-one/internal/upload"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	dir := flag.String("dir", cfg.DataDir, "Directory to select files from")
	match := flag.String("match", upload.DefaultPattern, "Substring a file name must contain")
	bucket := flag.String("bucket", "", "Destination bucket")
	folder := flag.String("folder", upload.DefaultFolder, "Object prefix inside the bucket (bucket root for --file unless set)")
	saveAs := flag.String("save-as", "", "Object name for --file (defaults to the file name)")
	file := flag.String("file", "", "Upload a single file instead of a directory")
	storageType := flag.String("storage", cfg.StorageType, "Storage backend: local or gcs")
	list := flag.Bool("list", false, "List the bucket contents after uploading")
	flag.Parse()

	folderSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "folder" {
			folderSet = true
		}
	})
	*folder = uploadFolder(*file, *folder, folderSet)

	if *bucket == "" {
		log.Fatalf("--bucket is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := storage.Open(ctx, "upload", storage.Config{
		Type:            *storageType,
		BucketName:      *bucket,
		CredentialsFile: cfg.GCSCredentialsFile,
		BaseDir:         cfg.StorageBaseDir,
	})
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", *storageType, err)
	}
	defer conn.Close()

	if *file != "" {
		if _, err := upload.Upload(ctx, conn, *bucket, *file, *folder, *saveAs); err != nil {
			log.Fatalf("Upload failed: %v", err)
		}
	} else {
		files, err := upload.SelectFiles(*dir, *match)
		if err != nil {
			log.Fatalf("Failed to select files: %v", err)
		}
		log.Printf("Upload: %d files in %s match %q", len(files), *dir, *match)

		if _, err := upload.BulkUpload(ctx, conn, *bucket, *folder, files); err != nil {
			log.Fatalf("Upload finished with errors: %v", err)
		}
	}

	if *list {
		if err := upload.ListContents(ctx, conn, *bucket, *folder, os.Stdout); err != nil {
			log.Fatalf("Failed to list bucket: %v", err)
		}
	}
}

// uploadFolder returns the object prefix to use. A single-file upload only
// gets a prefix when --folder was passed explicitly.
func uploadFolder(file, folder string, folderSet bool) string {
	if file != "" && !folderSet {
		return ""
	}
	return folder
}
