// Package objstore wraps the MinIO client used for uploaded assets
// (profile pictures, certificate backgrounds) and export artifacts.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config carries the object storage connection settings.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// Client is a thin bucket-scoped wrapper around minio.Client.
type Client struct {
	raw    *minio.Client
	bucket string
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// New constructs a Client and verifies the bucket exists.
func New(ctx context.Context, cfg Config) (*Client, error) {
	raw, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: new client: %w", err)
	}
	exists, err := raw.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("objstore: bucket check: %w", err)
	}
	if !exists {
		if err := raw.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("objstore: make bucket: %w", err)
		}
	}
	return &Client{raw: raw, bucket: cfg.Bucket}, nil
}

// ObjectKey builds a collision-free key under prefix for an uploaded file,
// sanitising the original name the same way the upload form does.
func ObjectKey(prefix, fileName string) string {
	return prefix + "/" + uuid.NewString() + "-" + unsafeFileChars.ReplaceAllString(fileName, "_")
}

// Put uploads the payload under key with the given content type.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if c == nil || c.raw == nil {
		return "", fmt.Errorf("objstore: client not configured")
	}
	_, err := c.raw.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("objstore: put %q: %w", key, err)
	}
	return key, nil
}

// Get streams the object stored under key.
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if c == nil || c.raw == nil {
		return nil, fmt.Errorf("objstore: client not configured")
	}
	obj, err := c.raw.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("objstore: get %q: %w", key, err)
	}
	return obj, nil
}

// Remove deletes the object stored under key. Missing objects are not errors.
func (c *Client) Remove(ctx context.Context, key string) error {
	if c == nil || c.raw == nil || key == "" {
		return nil
	}
	return c.raw.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
}

// PresignedURL returns a temporary download URL for key.
func (c *Client) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if c == nil || c.raw == nil {
		return "", fmt.Errorf("objstore: client not configured")
	}
	u, err := c.raw.PresignedGetObject(ctx, c.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("objstore: presign %q: %w", key, err)
	}
	return u.String(), nil
}
