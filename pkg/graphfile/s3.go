package graphfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
)

// MaxObjectSize bounds graph objects fetched from S3
const MaxObjectSize = 64 << 20

var objectLimit int64 = MaxObjectSize

var (
	ErrInvalidS3URI   = errors.New("invalid s3 uri")
	ErrObjectTooLarge = errors.New("graph object too large")
)

// ObjectStore is the subset of the S3 client used for graphs
type ObjectStore interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the client built by NewS3Client. Empty fields fall
// back to the SDK's default chain (AWS_REGION, shared config, instance role).
type S3Options struct {
	Region          string
	Endpoint        string // S3-compatible endpoint such as MinIO; enables path-style addressing
	AccessKeyID     string
	SecretAccessKey string
}

// S3OptionsFromEnv reads LOUVAIN_S3_REGION, LOUVAIN_S3_ENDPOINT,
// LOUVAIN_S3_ACCESS_KEY_ID and LOUVAIN_S3_SECRET_ACCESS_KEY
func S3OptionsFromEnv() S3Options {
	return S3Options{
		Region:          os.Getenv("LOUVAIN_S3_REGION"),
		Endpoint:        os.Getenv("LOUVAIN_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("LOUVAIN_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("LOUVAIN_S3_SECRET_ACCESS_KEY"),
	}
}

// NewS3Client builds an S3 client from opts
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// IsS3URI reports whether location names an S3 object
func IsS3URI(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3URI splits s3://bucket/key
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidS3URI, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Scheme != "s3" || u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	return u.Host, key, nil
}

// LoadObject fetches and decodes a graph object
func LoadObject(ctx context.Context, store ObjectStore, uri string) (*louvain.Graph, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	format, err := FormatOf(key)
	if err != nil {
		return nil, err
	}

	out, err := store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, objectLimit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	if int64(len(data)) > objectLimit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrObjectTooLarge, uri, objectLimit)
	}
	return decodeFile(key, data, format)
}

// SaveObject encodes g by the key's extension and uploads it
func SaveObject(ctx context.Context, store ObjectStore, uri string, g *louvain.Graph) error {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	data, err := encodeFile(key, g)
	if err != nil {
		return err
	}

	_, err = store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", uri, err)
	}
	return nil
}

// Open loads a graph from a local path or an s3:// URI
func Open(ctx context.Context, location string) (*louvain.Graph, error) {
	if !IsS3URI(location) {
		return Load(location)
	}
	client, err := NewS3Client(ctx, S3OptionsFromEnv())
	if err != nil {
		return nil, err
	}
	return LoadObject(ctx, client, location)
}

// Write saves a graph to a local path or an s3:// URI
func Write(ctx context.Context, location string, g *louvain.Graph) error {
	if !IsS3URI(location) {
		return Save(location, g)
	}
	client, err := NewS3Client(ctx, S3OptionsFromEnv())
	if err != nil {
		return err
	}
	return SaveObject(ctx, client, location, g)
}
