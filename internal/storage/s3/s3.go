// Package s3 implements storage.Backend over an S3-compatible object
// store using minio-go.
package s3

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/strata-db/strata/internal/storage"
	"github.com/strata-db/strata/pkg/errors"
)

// Config configures an S3/MinIO-compatible backend.
type Config struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Backend is a minio-go-backed storage.Backend scoped to a single bucket.
// Paths passed to its methods are object keys within that bucket.
type Backend struct {
	client *minio.Client
	bucket string
}

// New dials an S3-compatible endpoint and returns a backend scoped to
// cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.New(storage.ErrCreateFailed, "failed to construct S3 client", err).AddContext("endpoint", cfg.Endpoint)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.New(storage.ErrStatFailed, "failed to check bucket", err).AddContext("bucket", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, errors.New(storage.ErrCreateFailed, "failed to create bucket", err).AddContext("bucket", cfg.Bucket)
		}
	}

	return &Backend{client: client, bucket: cfg.Bucket}, nil
}

// key normalizes a path into an object key: leading slashes are stripped,
// since S3 keys are never rooted.
func key(path string) string {
	return strings.TrimPrefix(path, "/")
}

func (b *Backend) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key(path), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.New(storage.ErrOpenFailed, "failed to open object", err).AddContext("path", path)
	}
	// GetObject is lazy: force the round trip now so a missing key surfaces
	// here rather than on the caller's first Read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if errResp := minio.ToErrorResponse(err); errResp.Code == "NoSuchKey" {
			return nil, errors.New(storage.ErrObjectNotFound, "object not found", err).AddContext("path", path)
		}
		return nil, errors.New(storage.ErrOpenFailed, "failed to stat object", err).AddContext("path", path)
	}
	return obj, nil
}

func (b *Backend) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &pipeWriter{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := b.client.PutObject(ctx, b.bucket, key(path), pr, -1, minio.PutObjectOptions{})
		pr.CloseWithError(err)
		w.done <- err
	}()

	return w, nil
}

func (b *Backend) Remove(ctx context.Context, path string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key(path), minio.RemoveObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return nil
		}
		return errors.New(storage.ErrRemoveFailed, "failed to remove object", err).AddContext("path", path)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, key(path), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.New(storage.ErrStatFailed, "failed to stat object", err).AddContext("path", path)
}

func (b *Backend) List(ctx context.Context, dir string) ([]string, error) {
	prefix := key(dir)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var names []string
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, errors.New(storage.ErrListFailed, "failed to list objects", obj.Err).AddContext("path", dir)
		}
		if strings.HasSuffix(obj.Key, "/") {
			// Non-recursive listing reports sub-prefixes too; skip them.
			continue
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	return names, nil
}

// pipeWriter adapts minio-go's PutObject, which wants a single Reader, to
// the io.WriteCloser the storage.Backend interface requires: writes flow
// through an in-memory pipe to a goroutine running PutObject, and Close
// waits for that upload to finish so errors surface to the writer.
type pipeWriter struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *pipeWriter) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
