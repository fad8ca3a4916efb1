package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FileFetcher reads local files
type FileFetcher struct{}

// Fetch reads the file at source
func (FileFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	return data, nil
}

// HTTPFetcher downloads http(s) resources
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher with a per-request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch performs a GET and returns the body of a 2xx response
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// S3Config holds settings for s3:// sources
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PathStyle       bool
}

// S3Fetcher downloads objects addressed as s3://bucket/key
type S3Fetcher struct {
	downloader *manager.Downloader
}

// NewS3Fetcher builds an S3 client from the default AWS chain, with static
// credentials when both keys are set.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Fetcher{downloader: manager.NewDownloader(client)}, nil
}

// Fetch downloads the whole object into memory
func (f *S3Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	bucket, key, err := SplitS3URI(source)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := f.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return buf.Bytes(), nil
}

// IsS3Source reports whether source uses the s3 scheme, in any letter case
func IsS3Source(source string) bool {
	return len(source) >= 5 && strings.EqualFold(source[:5], "s3://")
}

// SplitS3URI splits s3://bucket/key into its parts
func SplitS3URI(source string) (string, string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 uri %q: %w", source, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: want s3://bucket/key", source)
	}
	return u.Host, key, nil
}
