// Package publish uploads generated artifacts to object storage.
package publish

import (
	"bytes"
	"context"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vango-dev/pagegen/internal/errors"
)

// Object is a generated artifact ready for upload.
type Object struct {
	// Name is the file name, appended to the key prefix.
	Name string

	// Body is the artifact content.
	Body []byte

	// ContentType is the MIME type. Derived from Name when empty.
	ContentType string

	// RunID identifies the generation run that produced the artifact.
	RunID string
}

// Publisher uploads artifacts.
type Publisher interface {
	Publish(ctx context.Context, obj Object) (string, error)
}

// objectPutter is the subset of *s3.Client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures an S3Publisher.
type S3Options struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string

	// PathStyle forces path-style addressing (needed by most S3-compatible
	// servers such as MinIO).
	PathStyle bool
}

// S3Publisher uploads artifacts to an S3 bucket.
//
// Example usage:
//
//	pub := publish.NewS3Publisher(publish.S3Options{
//	    Bucket: "site-artifacts",
//	    Prefix: "pages/",
//	    Region: "us-east-1",
//	})
//	key, err := pub.Publish(ctx, publish.Object{Name: "pages_gen.go", Body: code})
type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Publisher creates a publisher with a client configured from opts.
// Credentials come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN.
func NewS3Publisher(opts S3Options) *S3Publisher {
	s3opts := s3.Options{
		Region:       opts.Region,
		Credentials:  aws.NewCredentialsCache(envCredentials()),
		UsePathStyle: opts.PathStyle,
	}
	if opts.Endpoint != "" {
		s3opts.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return newS3Publisher(s3.New(s3opts), opts.Bucket, opts.Prefix)
}

func newS3Publisher(client objectPutter, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		creds := aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}
		if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
			return aws.Credentials{}, errors.New("E160").
				WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return creds, nil
	})
}

// Key returns the object key an artifact is stored under.
func (p *S3Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	if strings.HasSuffix(p.prefix, "/") {
		return p.prefix + name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads obj and returns its key.
func (p *S3Publisher) Publish(ctx context.Context, obj Object) (string, error) {
	key := p.Key(obj.Name)

	contentType := obj.ContentType
	if contentType == "" {
		contentType = ContentType(obj.Name)
	}

	metadata := map[string]string{
		"generated-at": p.now().UTC().Format(time.RFC3339),
	}
	if obj.RunID != "" {
		metadata["run-id"] = obj.RunID
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", errors.New("E160").
			WithDetail("Uploading s3://" + p.bucket + "/" + key).
			Wrap(err)
	}

	return key, nil
}

// ContentType returns the MIME type for a generated artifact name.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".go":
		return "text/x-go; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
