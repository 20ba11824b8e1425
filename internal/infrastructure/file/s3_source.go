package file

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	domain "github.com/mohammadpnp/data-importer/internal/domain/ingest"
)

// S3Source implements the same scanner contract over an S3-compatible
// bucket (AWS S3 or MinIO). Object keys play the role of file paths.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	PathStyle bool
}

func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Source{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Source) Scan(ctx context.Context) ([]domain.DiscoveredFile, error) {
	var discovered []domain.DiscoveredFile
	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &s.prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", s.bucket, err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if !strings.EqualFold(keyExt(*obj.Key), ".json") {
				continue
			}
			discovered = append(discovered, domain.DiscoveredFile{
				Path:       *obj.Key,
				ModifiedAt: obj.LastModified.UTC(),
			})
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(discovered, func(i, j int) bool {
		if !discovered[i].ModifiedAt.Equal(discovered[j].ModifiedAt) {
			return discovered[i].ModifiedAt.Before(discovered[j].ModifiedAt)
		}
		return discovered[i].Path < discovered[j].Path
	})

	return discovered, nil
}

func (s *S3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return out.Body, nil
}

func keyExt(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i:]
	}
	return ""
}
