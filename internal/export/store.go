// Package export publishes rendered mass balance reports to a local
// directory, S3 (or an S3-compatible store) or Google Cloud Storage.
package export

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Store abstracts write-once blob storage for rendered reports.
type Store interface {
	// PutReport stores a report and returns the location it was written to.
	PutReport(ctx context.Context, study, reportID, ext string, data []byte) (string, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) path(study, reportID, ext string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(reportKey(study, reportID, ext)))
}

// PutReport writes the report under <base>/<study>/reports/<id>.<ext>.
func (s *LocalStore) PutReport(ctx context.Context, study, reportID, ext string, data []byte) (string, error) {
	path := s.path(study, reportID, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Destination is a parsed export target.
type Destination struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string
	Prefix string
	Path   string // local directory when Scheme is "file"
}

// ParseDestination parses s3://bucket/prefix, gs://bucket/prefix or a local
// directory path.
func ParseDestination(dest string) (Destination, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return Destination{}, fmt.Errorf("empty export destination")
	}
	if !strings.Contains(dest, "://") {
		return Destination{Scheme: "file", Path: dest}, nil
	}

	u, err := url.Parse(dest)
	if err != nil {
		return Destination{}, fmt.Errorf("parse export destination %q: %w", dest, err)
	}
	switch u.Scheme {
	case "s3", "gs":
		if u.Host == "" {
			return Destination{}, fmt.Errorf("export destination %q has no bucket", dest)
		}
		return Destination{Scheme: u.Scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	case "file":
		return Destination{Scheme: "file", Path: u.Path}, nil
	default:
		return Destination{}, fmt.Errorf("unsupported export scheme %q (want s3, gs or a local path)", u.Scheme)
	}
}

// Open returns the Store for a destination string. S3 settings other than
// the bucket and prefix come from s3cfg.
func Open(ctx context.Context, dest string, s3cfg S3Config) (Store, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}
	switch d.Scheme {
	case "s3":
		s3cfg.Bucket = d.Bucket
		s3cfg.Prefix = d.Prefix
		return NewS3Store(ctx, s3cfg)
	case "gs":
		return NewGCSStore(ctx, d.Bucket, d.Prefix)
	default:
		return NewLocalStore(d.Path), nil
	}
}

// Export stores data under a fresh report ID and returns where it went.
func Export(ctx context.Context, store Store, study, ext string, data []byte) (string, error) {
	return store.PutReport(ctx, study, uuid.NewString(), ext, data)
}

// Close releases the resources held by a store, if it holds any.
func Close(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// studySlug makes a study name safe to use as a single path segment.
func studySlug(study string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(study), "-"), "-.")
	if s == "" {
		return "default"
	}
	return s
}

func reportKey(study, reportID, ext string) string {
	return studySlug(study) + "/reports/" + reportID + "." + strings.TrimPrefix(ext, ".")
}

func objectKey(prefix, study, reportID, ext string) string {
	if prefix == "" {
		return reportKey(study, reportID, ext)
	}
	return prefix + "/" + reportKey(study, reportID, ext)
}

func contentType(ext string) string {
	switch strings.TrimPrefix(ext, ".") {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	case "md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
