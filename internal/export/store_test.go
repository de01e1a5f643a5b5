package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorePutReport(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	data := []byte(`{"rows":[]}`)
	loc, err := s.PutReport(ctx, "study-42", "r1", "json", data)
	if err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	// Verify file path layout
	expectedPath := filepath.Join(dir, "study-42", "reports", "r1.json")
	if loc != expectedPath {
		t.Errorf("location = %q, want %q", loc, expectedPath)
	}
	got, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("expected file at %s: %v", expectedPath, err)
	}
	if string(got) != string(data) {
		t.Errorf("stored report = %q, want %q", got, data)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(ctx, dir, S3Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	loc1, err := Export(ctx, store, "Drug A / batch 7", "md", []byte("# report"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	loc2, err := Export(ctx, store, "Drug A / batch 7", "md", []byte("# report"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if loc1 == loc2 {
		t.Error("expected each export to get a fresh report ID")
	}

	wantDir := filepath.Join(dir, "Drug-A-batch-7", "reports")
	if filepath.Dir(loc1) != wantDir {
		t.Errorf("export dir = %q, want %q", filepath.Dir(loc1), wantDir)
	}
	if !strings.HasSuffix(loc1, ".md") {
		t.Errorf("expected .md extension, got %q", loc1)
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		dest    string
		want    Destination
		wantErr bool
	}{
		{dest: "out/reports", want: Destination{Scheme: "file", Path: "out/reports"}},
		{dest: "file:///tmp/reports", want: Destination{Scheme: "file", Path: "/tmp/reports"}},
		{dest: "s3://stability-bucket", want: Destination{Scheme: "s3", Bucket: "stability-bucket"}},
		{dest: "s3://stability-bucket/qa/2026/", want: Destination{Scheme: "s3", Bucket: "stability-bucket", Prefix: "qa/2026"}},
		{dest: "gs://lab-reports/forced-deg", want: Destination{Scheme: "gs", Bucket: "lab-reports", Prefix: "forced-deg"}},
		{dest: "", wantErr: true},
		{dest: "s3:///no-bucket", wantErr: true},
		{dest: "ftp://host/x", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.dest, func(t *testing.T) {
			got, err := ParseDestination(tc.dest)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDestination(%q): %v", tc.dest, err)
			}
			if got != tc.want {
				t.Errorf("ParseDestination(%q) = %+v, want %+v", tc.dest, got, tc.want)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, study, id, ext string
		want                   string
	}{
		{"", "s1", "abc", "json", "s1/reports/abc.json"},
		{"qa", "s1", "abc", ".csv", "qa/s1/reports/abc.csv"},
		{"", "", "abc", "md", "default/reports/abc.md"},
		{"", "../../etc", "abc", "json", "etc/reports/abc.json"},
	}
	for _, tc := range tests {
		if got := objectKey(tc.prefix, tc.study, tc.id, tc.ext); got != tc.want {
			t.Errorf("objectKey(%q, %q, %q, %q) = %q, want %q", tc.prefix, tc.study, tc.id, tc.ext, got, tc.want)
		}
	}
}

func TestContentType(t *testing.T) {
	for ext, want := range map[string]string{
		"json": "application/json",
		"csv":  "text/csv",
		"md":   "text/markdown",
		"txt":  "text/plain",
	} {
		if got := contentType(ext); got != want {
			t.Errorf("contentType(%q) = %q, want %q", ext, got, want)
		}
	}
}

type closingStore struct {
	LocalStore
	closed int
	err    error
}

func (s *closingStore) Close() error {
	s.closed++
	return s.err
}

func TestClose(t *testing.T) {
	if err := Close(NewLocalStore(t.TempDir())); err != nil {
		t.Errorf("Close(LocalStore) = %v, want nil", err)
	}

	s := &closingStore{LocalStore: LocalStore{BaseDir: t.TempDir()}}
	if err := Close(s); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
	if s.closed != 1 {
		t.Errorf("closed %d times, want 1", s.closed)
	}

	s.err = errors.New("connection reset")
	if err := Close(s); !errors.Is(err, s.err) {
		t.Errorf("Close = %v, want %v", err, s.err)
	}
}
