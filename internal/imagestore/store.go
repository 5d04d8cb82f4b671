// Package imagestore uploads and removes member photos on an S3-compatible host.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/oggyb/dating-app/internal/config"
)

// Store is the photo host as seen by the services.
type Store interface {
	// Put uploads r under key and returns the public URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// S3Store implements Store for S3 and S3-compatible hosts.
type S3Store struct {
	client    *s3.Client
	bucket    string
	region    string
	publicURL string
}

// NewS3Store builds an S3 client from the storage section of cfg.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	sc := cfg.Storage
	if sc.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	region := sc.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if sc.AccessKeyID != "" && sc.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKeyID, sc.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
		}
		o.UsePathStyle = sc.UsePathStyle
	})

	publicURL := strings.TrimSuffix(sc.PublicURL, "/")
	if publicURL == "" && sc.Endpoint != "" {
		publicURL = strings.TrimSuffix(sc.Endpoint, "/") + "/" + sc.Bucket
	}

	return &S3Store{
		client:    client,
		bucket:    sc.Bucket,
		region:    region,
		publicURL: publicURL,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL is the public address of key.
func (s *S3Store) URL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// PhotoKey returns a fresh object key for one of username's photos.
func PhotoKey(username string) string {
	return fmt.Sprintf("photos/%s/%s.jpg", username, uuid.New().String())
}

// MaxDimension caps the width and height an upload may declare. The
// header is checked before any pixel data is decoded.
const MaxDimension = 8000

// Normalize decodes an uploaded image, crops it to a size x size square
// around the centre and re-encodes it as JPEG.
func Normalize(r io.Reader, size int) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("image is %dx%d, limit is %dx%d", cfg.Width, cfg.Height, MaxDimension, MaxDimension)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
