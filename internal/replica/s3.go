package replica

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"apikeep/internal/config"
	"apikeep/internal/snapshot"
)

// S3Replica stores archives in an S3 bucket under an optional key prefix.
// It works against AWS or any S3-compatible endpoint (minio etc.) when
// ReplicaConfig.S3Endpoint is set.
type S3Replica struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

var _ snapshot.Replica = (*S3Replica)(nil)

// NewS3Replica builds an S3-backed replica from configuration. Static
// credentials are used when configured; otherwise the default AWS
// credential chain applies.
func NewS3Replica(cfg config.ReplicaConfig) (*S3Replica, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 replica requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Replica{
		name:     cfg.Name,
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (r *S3Replica) key(name string) string {
	if r.prefix == "" {
		return name
	}
	return path.Join(r.prefix, name)
}

// Put uploads an archive. The uploader handles multipart transfers for
// large archives.
func (r *S3Replica) Put(name string, src io.Reader, size int64) error {
	_, err := r.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.key(name)),
		Body:          src,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return nil
}

// Get downloads an archive by name and writes it to w.
func (r *S3Replica) Get(name string, w io.Writer) error {
	out, err := r.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(name)),
	})
	if err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

// ValidateSetup verifies the bucket is reachable.
func (r *S3Replica) ValidateSetup() error {
	_, err := r.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", r.bucket, err)
	}
	return nil
}
