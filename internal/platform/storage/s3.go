package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/andreypavlenko/matchday/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client fetches the day's job listing export (§6.1) from object
// storage when JOB_CSV_SOURCE=s3.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates a new S3 client with custom endpoint support.
func NewS3Client(cfg config.S3Config) (*S3Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}

	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				SigningRegion:     cfg.Region,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, fmt.Errorf("unknown endpoint requested")
	})

	awsConfig := aws.Config{
		Region:                      cfg.Region,
		Credentials:                 credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		EndpointResolverWithOptions: customResolver,
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Client{
		client: s3Client,
		bucket: cfg.Bucket,
	}, nil
}

// dailyCSVKey returns the object key for a given batch date, laid out
// as jobs/<batch_date>.csv so a lifecycle rule can expire old exports.
func dailyCSVKey(batchDate time.Time) string {
	return fmt.Sprintf("jobs/%s.csv", batchDate.Format("2006-01-02"))
}

// FetchDailyCSV downloads the job listing export for batchDate. The
// caller owns the returned ReadCloser and must close it once the
// ingest pass over it is done.
func (c *S3Client) FetchDailyCSV(ctx context.Context, batchDate time.Time) (io.ReadCloser, error) {
	key := dailyCSVKey(batchDate)

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}

	return out.Body, nil
}

// DailyCSVExists reports whether batchDate's export is present, so the
// caller can fail fast with an ingest-stage error (§7) instead of
// discovering a missing file mid-stream.
func (c *S3Client) DailyCSVExists(ctx context.Context, batchDate time.Time) (bool, error) {
	key := dailyCSVKey(batchDate)

	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, nil
	}

	return true, nil
}
