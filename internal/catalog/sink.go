package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
)

// DirSink writes documents under a local directory.
type DirSink struct {
	Root string
}

func (s DirSink) Write(_ context.Context, name string, data []byte) error {
	full := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// BaseURL returns the absolute path of the root directory.
func (s DirSink) BaseURL() (string, error) {
	abs, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// GCSSink writes documents as objects under a bucket prefix.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSink opens a sink for a gs://bucket/prefix target.
func NewGCSSink(ctx context.Context, target string) (*GCSSink, error) {
	bucket, prefix, err := parseGCSTarget(target)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSSink) Write(ctx context.Context, name string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(path.Join(s.prefix, name)).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w", s.bucket, path.Join(s.prefix, name), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", s.bucket, path.Join(s.prefix, name), err)
	}
	return nil
}

// BaseURL is the public HTTPS location of the export root.
func (s *GCSSink) BaseURL() string {
	return strings.TrimSuffix("https://storage.googleapis.com/"+path.Join(s.bucket, s.prefix), "/")
}

func (s *GCSSink) Close() error { return s.client.Close() }

func parseGCSTarget(target string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(target, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// target: %q", target)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", target)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// OpenSink returns a sink for target, a local directory or gs:// URL, along
// with the base URL published layouts should use and a close function.
func OpenSink(ctx context.Context, target string) (Sink, string, io.Closer, error) {
	if strings.HasPrefix(target, "gs://") {
		s, err := NewGCSSink(ctx, target)
		if err != nil {
			return nil, "", nil, err
		}
		return s, s.BaseURL(), s, nil
	}
	s := DirSink{Root: target}
	base, err := s.BaseURL()
	if err != nil {
		return nil, "", nil, err
	}
	return s, base, nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
