package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ftplog/internal/discovery"
	"ftplog/internal/domain"
	"ftplog/internal/port"
)

const ndjsonContentType = "application/x-ndjson"

type archiveWriter struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewArchiveWriter creates an ArchiveSink that writes one NDJSON object per
// source file and run.
func NewArchiveWriter(client manager.UploadAPIClient, bucket, prefix string) port.ArchiveSink {
	return &archiveWriter{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// ArchiveKey returns <prefix>/<yyyy>/<mm>/<dd>/<run-id>/<name>.ndjson.
func ArchiveKey(prefix, runID, name string, entry domain.ArchiveEntry) string {
	day := entry.ProcessDt.UTC()
	return path.Join(prefix, day.Format("2006"), day.Format("01"), day.Format("02"), runID, name+".ndjson")
}

func (w *archiveWriter) Append(ctx context.Context, runID string, entries []domain.ArchiveEntry) error {
	groups := groupByFile(entries)
	used := make(map[string]int, len(groups))

	for _, g := range groups {
		name := discovery.LogicalName(g[0].GCSURI)
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name += "-" + strconv.Itoa(n)
		} else {
			used[name] = 1
		}

		body, err := encodeNDJSON(g)
		if err != nil {
			return fmt.Errorf("archiveWriter.Append: %w", err)
		}
		key := ArchiveKey(w.prefix, runID, name, g[0])
		_, err = w.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(w.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(ndjsonContentType),
		})
		if err != nil {
			return fmt.Errorf("archiveWriter.Append %s: %w", key, err)
		}
	}
	return nil
}

// groupByFile splits entries by GCSURI, keeping first-seen file order and
// the line order inside each file.
func groupByFile(entries []domain.ArchiveEntry) [][]domain.ArchiveEntry {
	index := map[string]int{}
	var groups [][]domain.ArchiveEntry
	for i := range entries {
		idx, ok := index[entries[i].GCSURI]
		if !ok {
			idx = len(groups)
			index[entries[i].GCSURI] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], entries[i])
	}
	return groups
}

func encodeNDJSON(entries []domain.ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range entries {
		if err := enc.Encode(entries[i]); err != nil {
			return nil, fmt.Errorf("encoding archive entry: %w", err)
		}
	}
	return buf.Bytes(), nil
}
