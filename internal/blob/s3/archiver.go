package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aywang31/marketpulse/internal/domain"
)

// Archiver writes fetched batches as JSON objects under
// raw/<source>/<timestamp>.json. It satisfies the ingestion layer's
// RawArchiver interface.
type Archiver struct {
	client *Client
	prefix string
}

// NewArchiver creates an Archiver. prefix defaults to "raw".
func NewArchiver(client *Client, prefix string) *Archiver {
	if prefix == "" {
		prefix = "raw"
	}
	return &Archiver{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

type archivedBatch struct {
	Source    domain.Source             `json:"source"`
	FetchedAt time.Time                 `json:"fetched_at"`
	Count     int                       `json:"count"`
	Markets   []domain.NormalizedMarket `json:"markets"`
}

// ArchiveBatch serializes the batch and uploads it as a single object.
func (a *Archiver) ArchiveBatch(ctx context.Context, src domain.Source, ts time.Time, batch []domain.NormalizedMarket) error {
	body, err := json.Marshal(archivedBatch{
		Source:    src,
		FetchedAt: ts,
		Count:     len(batch),
		Markets:   batch,
	})
	if err != nil {
		return fmt.Errorf("s3: marshal batch: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json",
		a.prefix,
		strings.ToLower(string(src)),
		ts.UTC().Format("2006-01-02T15-04-05Z"),
	)

	_, err = a.client.s3.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(a.client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", key, err)
	}
	return nil
}
