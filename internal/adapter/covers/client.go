// Package covers stores book cover images in an S3-compatible bucket
// (MinIO in development, any S3 endpoint in production).
package covers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/libshelf/library-service/internal/config"
)

// Client implements ports.FileStorage against an S3-compatible endpoint.
type Client struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	baseURL    string
	logger     *slog.Logger
}

// NewClient builds the S3 client and makes sure the bucket exists.
func NewClient(cfg *appconfig.Config, logger *slog.Logger) (*Client, error) {
	c := cfg.Covers
	if c.Endpoint == "" || c.AccessKeyID == "" || c.SecretAccessKey == "" || c.Bucket == "" {
		return nil, fmt.Errorf("cover storage requires COVERS_S3_ENDPOINT, COVERS_S3_ACCESS_KEY_ID, COVERS_S3_SECRET_ACCESS_KEY and COVERS_S3_BUCKET")
	}

	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, c.Endpoint)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:    endpointURL,
					Source: aws.EndpointSourceCustom,
				}, nil
			})),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// MinIO serves buckets on paths, not subdomains.
		o.UsePathStyle = true
	})

	client := &Client{
		s3Client:   s3Client,
		uploader:   manager.NewUploader(s3Client),
		bucketName: c.Bucket,
		baseURL:    fmt.Sprintf("%s/%s", endpointURL, c.Bucket),
		logger:     logger,
	}

	if err := client.ensureBucket(c.Region); err != nil {
		return nil, err
	}
	return client, nil
}

// ensureBucket creates the bucket if it does not exist yet.
func (c *Client) ensureBucket(region string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	})
	if err == nil {
		c.logger.Info("cover bucket found", "bucket", c.bucketName)
		return nil
	}

	c.logger.Info("cover bucket not found, creating", "bucket", c.bucketName)
	_, err = c.s3Client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(c.bucketName),
		CreateBucketConfiguration: &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		},
	})
	if err != nil {
		return fmt.Errorf("creating bucket %q: %w", c.bucketName, err)
	}

	waiter := s3.NewBucketExistsWaiter(c.s3Client)
	if err := waiter.Wait(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(c.bucketName),
	}, 30*time.Second); err != nil {
		return fmt.Errorf("waiting for bucket %q: %w", c.bucketName, err)
	}

	c.logger.Info("cover bucket created", "bucket", c.bucketName)
	return nil
}

// UploadFile streams a cover image to the bucket and returns its public URL.
func (c *Client) UploadFile(ctx context.Context, objectKey string, reader io.Reader, contentType string) (string, error) {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(objectKey),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", objectKey, c.bucketName, err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, objectKey)
	c.logger.Info("cover image uploaded", "key", objectKey, "url", url)
	return url, nil
}

// DeleteFile removes a cover image from the bucket.
func (c *Client) DeleteFile(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("deleting %s from bucket %s: %w", objectKey, c.bucketName, err)
	}
	return nil
}
