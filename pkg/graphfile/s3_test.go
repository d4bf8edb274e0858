package graphfile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ObjectStore keyed by bucket/key
type memStore struct {
	objects map[string][]byte
	puts    int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (m *memStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	m.puts++
	return &s3.PutObjectOutput{}, nil
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://graphs/team/karate.json.sz")
	require.NoError(t, err)
	assert.Equal(t, "graphs", bucket)
	assert.Equal(t, "team/karate.json.sz", key)

	for _, uri := range []string{"s3://graphs", "s3://graphs/", "s3:///g.json", "http://graphs/g.json", "s3://%zz/g.json"} {
		_, _, err := ParseS3URI(uri)
		assert.ErrorIs(t, err, ErrInvalidS3URI, uri)
	}
}

func TestLoadObject(t *testing.T) {
	store := newMemStore()
	store.objects["graphs/g.json"] = []byte(jsonGraph)
	store.objects["graphs/g.yaml.sz"] = snappy.Encode(nil, []byte(yamlGraph))

	for _, uri := range []string{"s3://graphs/g.json", "s3://graphs/g.yaml.sz"} {
		g, err := LoadObject(context.Background(), store, uri)
		require.NoError(t, err, uri)
		checkGraph(t, g)
	}
}

func TestLoadObject_Errors(t *testing.T) {
	store := newMemStore()
	store.objects["graphs/bad.json"] = []byte("{")
	store.objects["graphs/big.json"] = bytes.Repeat([]byte(" "), 1025)

	saved := objectLimit
	objectLimit = 1024
	t.Cleanup(func() { objectLimit = saved })

	ctx := context.Background()

	_, err := LoadObject(ctx, store, "s3://graphs/missing.json")
	var noKey *types.NoSuchKey
	assert.True(t, errors.As(err, &noKey), "got %v", err)

	_, err = LoadObject(ctx, store, "s3://graphs/bad.json")
	assert.Error(t, err)

	_, err = LoadObject(ctx, store, "s3://graphs/big.json")
	assert.ErrorIs(t, err, ErrObjectTooLarge)

	_, err = LoadObject(ctx, store, "s3://graphs/g.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveObject_RoundTrip(t *testing.T) {
	g, err := Decode([]byte(jsonGraph), FormatJSON)
	require.NoError(t, err)

	store := newMemStore()
	ctx := context.Background()
	for _, uri := range []string{"s3://out/g.json", "s3://out/nested/g.yml.sz"} {
		require.NoError(t, SaveObject(ctx, store, uri, g), uri)

		back, err := LoadObject(ctx, store, uri)
		require.NoError(t, err, uri)
		assert.Equal(t, g, back, uri)
	}
	assert.Equal(t, 2, store.puts)

	assert.ErrorIs(t, SaveObject(ctx, store, "s3://out/g.txt", g), ErrUnsupportedFormat)
	assert.Equal(t, 2, store.puts)
}

func TestS3OptionsFromEnv(t *testing.T) {
	t.Setenv("LOUVAIN_S3_REGION", "ap-southeast-2")
	t.Setenv("LOUVAIN_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("LOUVAIN_S3_ACCESS_KEY_ID", "minio")
	t.Setenv("LOUVAIN_S3_SECRET_ACCESS_KEY", "minio123")

	opts := S3OptionsFromEnv()
	assert.Equal(t, S3Options{
		Region:          "ap-southeast-2",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	}, opts)

	client, err := NewS3Client(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-2", client.Options().Region)
	assert.True(t, client.Options().UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(client.Options().BaseEndpoint))
}

func TestOpen_LocalPath(t *testing.T) {
	g, err := Open(context.Background(), write(t, "g.json", jsonGraph))
	require.NoError(t, err)
	checkGraph(t, g)

	assert.True(t, IsS3URI("s3://b/k.json"))
	assert.False(t, IsS3URI(strings.TrimPrefix("s3://b/k.json", "s3:")))
}
