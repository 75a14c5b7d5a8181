package publish

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/pagegen/internal/errors"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestPublishUploadsObject(t *testing.T) {
	fake := &fakePutter{}
	p := newS3Publisher(fake, "artifacts", "pages/")
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	key, err := p.Publish(context.Background(), Object{
		Name:  "pages_gen.go",
		Body:  []byte("package site\n"),
		RunID: "run-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pages/pages_gen.go", key)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "artifacts", aws.ToString(in.Bucket))
	assert.Equal(t, "pages/pages_gen.go", aws.ToString(in.Key))
	assert.Equal(t, "text/x-go; charset=utf-8", aws.ToString(in.ContentType))
	assert.Equal(t, "run-1", in.Metadata["run-id"])
	assert.Equal(t, "2024-05-01T12:00:00Z", in.Metadata["generated-at"])
	assert.Equal(t, "package site\n", string(fake.bodies[0]))
}

func TestPublishExplicitContentType(t *testing.T) {
	fake := &fakePutter{}
	p := newS3Publisher(fake, "b", "")

	_, err := p.Publish(context.Background(), Object{Name: "x", ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", aws.ToString(fake.inputs[0].ContentType))
	assert.NotContains(t, fake.inputs[0].Metadata, "run-id")
}

func TestPublishError(t *testing.T) {
	cause := stderrors.New("access denied")
	p := newS3Publisher(&fakePutter{err: cause}, "b", "p")

	_, err := p.Publish(context.Background(), Object{Name: "pages.json"})
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "E160", e.Code)
	assert.Contains(t, e.Detail, "s3://b/p/pages.json")
	assert.ErrorIs(t, err, cause)
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, name, want string
	}{
		{"", "pages_gen.go", "pages_gen.go"},
		{"site/", "pages_gen.go", "site/pages_gen.go"},
		{"site", "pages.json", "site/pages.json"},
		{"a/b", "x", "a/b/x"},
	}
	for _, tt := range tests {
		p := newS3Publisher(&fakePutter{}, "b", tt.prefix)
		assert.Equal(t, tt.want, p.Key(tt.name), "prefix %q", tt.prefix)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/x-go; charset=utf-8", ContentType("pages_gen.go"))
	assert.Equal(t, "application/json", ContentType("pages.json"))
	assert.Equal(t, "application/octet-stream", ContentType("pages"))
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := envCredentials().Retrieve(context.Background())
	assert.Error(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	creds, err := envCredentials().Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
}

func TestNewS3Publisher(t *testing.T) {
	p := NewS3Publisher(S3Options{
		Bucket:    "b",
		Prefix:    "p/",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		PathStyle: true,
	})
	assert.Equal(t, "p/x", p.Key("x"))
	_, ok := p.client.(*s3.Client)
	assert.True(t, ok, "client should be an *s3.Client")
}
