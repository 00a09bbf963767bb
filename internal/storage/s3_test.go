package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/config"
	"github.com/prwee/prwee/internal/digest"
)

func TestArchiveDate(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"digests/tech/2026-08-30/digest.json", "2026-08-30", true},
		{"digests/tech/2026-08-30/digest.html", "2026-08-30", true},
		{"digests/tech/not-a-date/digest.json", "", false},
		{"digests/tech", "", false},
		{"unrelated/key", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := archiveDate(tt.key)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestUnconfiguredClientIsNoop(t *testing.T) {
	// No endpoint: the client constructs fine and every operation is a skip.
	c, err := NewClient(context.Background(), config.S3Config{Bucket: "b", RetentionDays: 30})
	require.NoError(t, err)
	assert.False(t, c.Configured())

	d := &digest.Digest{GeneratedAt: time.Now()}
	assert.NoError(t, c.ArchiveDigest(context.Background(), d, "<html></html>"))

	deleted, err := c.PruneArchives(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, deleted)
}
