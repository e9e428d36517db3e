// Package objectstore wraps the S3-compatible object-storage collaborator
// (MinIO in the target deployment). Clients are built from the live
// configuration; credentials arrive through environment-variable injection,
// never from the config file itself.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures an object-store client.
type Options struct {
	// Endpoint is the host:port of the S3-compatible service, without scheme.
	Endpoint string
	Bucket   string
	Region   string
	UseSSL   bool

	AccessKey string
	SecretKey string
	// SessionToken is optional, for temporary credentials.
	SessionToken string
}

// ErrNotInitialized reports use of an unbound object-store client.
var ErrNotInitialized = fmt.Errorf("objectstore: client is not initialized")

// Client talks to one bucket of an S3-compatible service.
type Client struct {
	mc     *minio.Client
	bucket string
}

// New creates an object-store client bound to opts.Bucket.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("objectstore: endpoint must not be empty")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("objectstore: bucket must not be empty")
	}

	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to create client for %q: %w", opts.Endpoint, err)
	}

	return &Client{mc: mc, bucket: opts.Bucket}, nil
}

// Put stores data under path in the bucket.
func (c *Client) Put(ctx context.Context, path string, data []byte) error {
	if c == nil || c.mc == nil {
		return ErrNotInitialized
	}
	_, err := c.mc.PutObject(ctx, c.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("objectstore: failed to put %q: %w", path, err)
	}
	return nil
}

// Get retrieves the object stored under path.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if c == nil || c.mc == nil {
		return nil, ErrNotInitialized
	}
	obj, err := c.mc.GetObject(ctx, c.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to get %q: %w", path, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("objectstore: failed to read %q: %w", path, err)
	}
	return data, nil
}

// List returns the keys of every object in the bucket.
func (c *Client) List(ctx context.Context) ([]string, error) {
	if c == nil || c.mc == nil {
		return nil, ErrNotInitialized
	}

	var keys []string
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("objectstore: failed to list bucket %q: %w", c.bucket, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Bucket returns the bound bucket name.
func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}
