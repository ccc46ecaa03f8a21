//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ligustah/getter/internal/testutils"
)

func TestCLIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	testFile := testutils.TestFile{
		Name: "test-file.bin",
		Size: 4*1024*1024 + 13,
	}
	testFile.Data = testutils.GenerateTestData(t, testFile.Size)
	files := []testutils.TestFile{testFile}

	t.Log("Starting nginx container...")
	nginx := testutils.StartNginxContainer(t, ctx, files)
	defer func() {
		if err := nginx.Close(ctx); err != nil {
			t.Logf("failed to terminate nginx container: %v", err)
		}
	}()

	t.Log("Starting Minio container...")
	minio := testutils.StartMinioContainer(t, ctx, "cli-test-bucket")
	defer func() {
		if err := minio.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	url := nginx.Addr + "/" + testFile.Name
	objectPath := "test/cli-file.bin"
	envFile := filepath.Join(t.TempDir(), "none.env")

	t.Run("probe", func(t *testing.T) {
		exitCode := runProbe([]string{"-env-file", envFile, "-url", url, "-workers", "4"})
		if exitCode != ExitSuccess {
			t.Fatalf("probe failed with exit code %d", exitCode)
		}
	})

	t.Run("download_to_file", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "downloaded.bin")
		exitCode := runDownload([]string{
			"-env-file", envFile,
			"-url", url,
			"-output", tmpFile,
			"-workers", "8",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("download failed with exit code %d", exitCode)
		}

		downloaded, err := os.ReadFile(tmpFile)
		if err != nil {
			t.Fatalf("read downloaded file: %v", err)
		}
		if !bytes.Equal(downloaded, testFile.Data) {
			t.Fatalf("downloaded data mismatch: got %d bytes, want %d bytes", len(downloaded), len(testFile.Data))
		}
	})

	t.Run("download_to_bucket", func(t *testing.T) {
		exitCode := runDownload([]string{
			"-env-file", envFile,
			"-url", url,
			"-bucket", minio.BucketURL,
			"-object", objectPath,
			"-workers", "4",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("download failed with exit code %d", exitCode)
		}
	})

	t.Run("validate", func(t *testing.T) {
		exitCode := runValidate([]string{
			"-bucket", minio.BucketURL,
			"-object", objectPath,
			"-checksum",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("validate failed with exit code %d", exitCode)
		}
	})

	t.Run("delete", func(t *testing.T) {
		exitCode := runDelete([]string{
			"-bucket", minio.BucketURL,
			"-object", objectPath,
			"-force",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("delete failed with exit code %d", exitCode)
		}

		exitCode = runValidate([]string{
			"-bucket", minio.BucketURL,
			"-object", objectPath,
		})
		if exitCode == ExitSuccess {
			t.Fatal("validate should have failed after delete")
		}
	})
}
