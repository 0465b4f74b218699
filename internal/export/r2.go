package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bilgisen/newsinsight/internal/utils"
)

// R2Options configures an R2Sink. Endpoint wins over AccountID.
type R2Options struct {
	Endpoint  string
	AccountID string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// R2Sink uploads exports to a Cloudflare R2 (S3 compatible) bucket
type R2Sink struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

func NewR2Sink(ctx context.Context, opts R2Options) (*R2Sink, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("r2 bucket is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		if opts.AccountID == "" {
			return nil, fmt.Errorf("r2 endpoint or account id is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Sink{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		now:    time.Now,
	}, nil
}

func (s *R2Sink) Name() string { return "r2" }

// Save uploads data under prefix/YYYY/MM/DD/name and returns an r2:// URI.
func (s *R2Sink) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.prefix, s.now().Format("2006/01/02"), path.Base(name))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("image/png"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"sha256": utils.HashBytes(data),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to r2: %w", key, err)
	}
	return fmt.Sprintf("r2://%s/%s", s.bucket, key), nil
}
