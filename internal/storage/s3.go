// Package storage archives generated digests to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/prwee/prwee/internal/config"
	"github.com/prwee/prwee/internal/digest"
)

// Client wraps an S3-compatible object storage client. A client built without
// an endpoint is a no-op: archival is optional infrastructure.
type Client struct {
	s3            *s3.Client
	bucket        string
	retentionDays int
}

// NewClient creates the archive client for any S3-compatible endpoint.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" {
		slog.Warn("S3 endpoint not configured, digest archival disabled")
		return &Client{bucket: cfg.Bucket, retentionDays: cfg.RetentionDays}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = &cfg.Endpoint
		o.UsePathStyle = true
	})

	return &Client{
		s3:            client,
		bucket:        cfg.Bucket,
		retentionDays: cfg.RetentionDays,
	}, nil
}

// Configured reports whether the client has a real endpoint behind it.
func (c *Client) Configured() bool {
	return c.s3 != nil
}

// ArchiveDigest uploads a digest's JSON form and rendered HTML under
// digests/<slug>/<date>/. Archival failures are the caller's to log; the
// digest itself has already been delivered by then.
func (c *Client) ArchiveDigest(ctx context.Context, d *digest.Digest, renderedHTML string) error {
	if c.s3 == nil {
		slog.Debug("digest archival not configured, skipping", "category", d.Category.Slug)
		return nil
	}

	prefix := fmt.Sprintf("digests/%s/%s", d.Category.Slug, d.GeneratedAt.UTC().Format("2006-01-02"))

	digestJSON, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal digest: %w", err)
	}

	uploads := map[string][]byte{
		prefix + "/digest.json": digestJSON,
		prefix + "/digest.html": []byte(renderedHTML),
	}

	for key, data := range uploads {
		_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &c.bucket,
			Key:    &key,
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return fmt.Errorf("storage: upload %s: %w", key, err)
		}
		slog.Debug("digest archived", "key", key, "size", len(data))
	}

	return nil
}

// PruneArchives deletes digest archives older than the configured retention.
// Article rows are never touched; only the object store is pruned.
func (c *Client) PruneArchives(ctx context.Context) (int, error) {
	if c.s3 == nil || c.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -c.retentionDays)
	deleted := 0

	var token *string
	for {
		prefix := "digests/"
		out, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &c.bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return deleted, fmt.Errorf("storage: list archives: %w", err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			date, ok := archiveDate(*obj.Key)
			if !ok || !date.Before(cutoff) {
				continue
			}
			_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: &c.bucket,
				Key:    obj.Key,
			})
			if err != nil {
				slog.Warn("storage: prune delete failed", "key", *obj.Key, "err", err)
				continue
			}
			deleted++
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	if deleted > 0 {
		slog.Info("storage: pruned digest archives", "deleted", deleted, "cutoff", cutoff.Format("2006-01-02"))
	}
	return deleted, nil
}

// archiveDate extracts the date segment from a digests/<slug>/<date>/<file>
// key.
func archiveDate(key string) (time.Time, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 4 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", parts[2])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
