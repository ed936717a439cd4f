// Package testutil holds stubs and fixtures shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// StubReleases is an in-memory release host. It satisfies
// pipeline.ReleaseSource and pipeline.AssetUploader and records every call.
type StubReleases struct {
	mu sync.Mutex

	// Latest is returned by LatestVersion when no override is given; empty
	// means no release or tag exists.
	Latest string
	// Schemas maps tags to the bundled schema published with them.
	Schemas map[string]any
	// LookupErr and DownloadErr, when set, are returned by the lookups.
	LookupErr   error
	DownloadErr error

	// UploadStatus is returned by UploadReleaseAsset (default 200).
	UploadStatus int
	UploadErr    error

	Calls   []string
	Uploads []Upload
}

// Upload records one UploadReleaseAsset call.
type Upload struct {
	URL  string
	Name string
	Data []byte
}

func (s *StubReleases) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, call)
}

func (s *StubReleases) LatestVersion(_ context.Context, override string) (string, bool, error) {
	s.record("LatestVersion")
	if override != "" {
		return override, true, nil
	}
	if s.LookupErr != nil {
		return "", false, s.LookupErr
	}
	return s.Latest, s.Latest != "", nil
}

func (s *StubReleases) DownloadBundledSchema(_ context.Context, tag string) (any, bool, error) {
	s.record("DownloadBundledSchema:" + tag)
	if s.DownloadErr != nil {
		return nil, false, s.DownloadErr
	}
	doc, ok := s.Schemas[tag]
	return doc, ok, nil
}

func (s *StubReleases) UploadReleaseAsset(_ context.Context, uploadURL, name string, data []byte) (int, error) {
	s.record("UploadReleaseAsset:" + name)
	s.mu.Lock()
	s.Uploads = append(s.Uploads, Upload{URL: uploadURL, Name: name, Data: append([]byte(nil), data...)})
	s.mu.Unlock()
	if s.UploadErr != nil {
		return 0, s.UploadErr
	}
	if s.UploadStatus == 0 {
		return 200, nil
	}
	return s.UploadStatus, nil
}

// CallCount returns the number of recorded calls.
func (s *StubReleases) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// WriteSchema writes content to name inside dir, creating parent
// directories, and returns the full path.
func WriteSchema(t testing.TB, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return p
}
