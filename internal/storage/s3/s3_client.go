package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"ftplog/internal/config"
	"ftplog/internal/domain"
	"ftplog/internal/port"
)

// objectAPI is the subset of the S3 client used to list and read input logs.
type objectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewClient builds an S3 client from configuration. A custom endpoint
// switches to path-style addressing for MinIO and similar stores.
func NewClient(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// URI formats the canonical s3:// URI of an object.
func URI(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

type blobLister struct {
	client objectAPI
	bucket string
	prefix string
}

// NewBlobLister creates an S3-backed BlobLister over bucket/prefix.
func NewBlobLister(client objectAPI, bucket, prefix string) port.BlobLister {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &blobLister{client: client, bucket: bucket, prefix: prefix}
}

func (l *blobLister) List(ctx context.Context) ([]domain.InputFile, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(l.bucket)}
	if l.prefix != "" {
		input.Prefix = aws.String(l.prefix)
	}

	var files []domain.InputFile
	paginator := s3.NewListObjectsV2Paginator(l.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			files = append(files, domain.InputFile{
				URI:          URI(l.bucket, key),
				Bucket:       l.bucket,
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}
	return files, nil
}

func (l *blobLister) Open(ctx context.Context, file domain.InputFile) (io.ReadCloser, error) {
	bucket := file.Bucket
	if bucket == "" {
		bucket = l.bucket
	}
	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(file.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", file.URI, err)
	}
	return result.Body, nil
}
