package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"gocloud.dev/blob"
)

// ValidationResult contains the results of validating an assembled object.
type ValidationResult struct {
	Valid     bool     // true if the object exists and matches the manifest
	TotalSize int64    // size recorded in the manifest
	Size      int64    // size of the stored object, -1 if missing
	PartCount int      // number of parts in the manifest
	Errors    []string // detailed error messages
}

// Validate checks an assembled object against its manifest. With
// verifyChecksum set the object is read back and hashed; otherwise only
// attributes are inspected.
//
// Returns an error if:
//   - The manifest doesn't exist (error wraps gcerrors.NotFound)
//   - The manifest JSON is malformed (encoding/json error)
//   - The object store cannot be reached
//   - The context is cancelled
//
// A missing object or a mismatch is NOT returned as an error; it is
// reported in the ValidationResult with Valid=false.
func Validate(ctx context.Context, bucket *blob.Bucket, dest string, verifyChecksum bool) (*ValidationResult, error) {
	manifest, err := ReadManifest(ctx, bucket, dest)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:     true,
		TotalSize: manifest.TotalSize,
		Size:      -1,
		PartCount: len(manifest.Parts),
		Errors:    make([]string, 0),
	}

	if err := checkCoverage(manifest.Parts, manifest.TotalSize); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	attrs, err := bucket.Attributes(ctx, dest)
	if err != nil {
		if isNotExist(err) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("object missing: %s", dest))
			return result, nil
		}
		return nil, fmt.Errorf("sink: check object: %w", err)
	}
	result.Size = attrs.Size

	if attrs.Size != manifest.TotalSize {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("size mismatch: expected %d, got %d", manifest.TotalSize, attrs.Size))
		return result, nil
	}

	if verifyChecksum && manifest.Checksum != "" {
		sum, err := checksumObject(ctx, bucket, dest)
		if err != nil {
			return nil, err
		}
		if sum != manifest.Checksum {
			result.Valid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("checksum mismatch: expected %s, got %s", manifest.Checksum, sum))
		}
	}

	return result, nil
}

func checksumObject(ctx context.Context, bucket *blob.Bucket, key string) (string, error) {
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return "", fmt.Errorf("sink: open %s: %w", key, err)
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("sink: read %s: %w", key, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Delete removes an assembled object, its manifest and any leftover parts.
//
// Returns an error if the manifest doesn't exist (error wraps
// gcerrors.NotFound) or an object cannot be deleted.
func Delete(ctx context.Context, bucket *blob.Bucket, dest string) error {
	if _, err := ReadManifest(ctx, bucket, dest); err != nil {
		return err
	}

	if err := DeletePartial(ctx, bucket, dest); err != nil {
		return err
	}

	if err := bucket.Delete(ctx, dest); err != nil && !isNotExist(err) {
		return fmt.Errorf("sink: delete %s: %w", dest, err)
	}
	if err := bucket.Delete(ctx, ManifestKey(dest)); err != nil {
		return fmt.Errorf("sink: delete manifest: %w", err)
	}
	return nil
}

// DeletePartial removes the parts left behind by an interrupted download
// of dest.
func DeletePartial(ctx context.Context, bucket *blob.Bucket, dest string) error {
	iter := bucket.List(&blob.ListOptions{Prefix: PartsPrefix(dest)})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("sink: list parts: %w", err)
		}
		if err := bucket.Delete(ctx, obj.Key); err != nil && !isNotExist(err) {
			return fmt.Errorf("sink: delete part %s: %w", obj.Key, err)
		}
	}
	return nil
}
