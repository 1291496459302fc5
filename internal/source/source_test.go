package source

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tabprep/internal/table"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    Location
		wantErr bool
	}{
		{name: "local path", uri: "data/raw.csv", want: Location{Key: "data/raw.csv"}},
		{name: "s3 object", uri: "s3://trials/2024/raw.csv", want: Location{Bucket: "trials", Key: "2024/raw.csv"}},
		{name: "s3 without key", uri: "s3://trials", wantErr: true},
		{name: "empty", uri: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, table.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.uri, got.String())
		})
	}
}

func TestResolverS3RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	r := &Resolver{S3: api}

	tbl := table.MustNew(
		table.Floats("age", 30, table.NaN),
		table.Strings("site", "A", "B"),
	)
	require.NoError(t, r.Write(ctx, "s3://trials/out/clean.csv", tbl))
	assert.Equal(t, "age,site\n30,A\n,B\n", string(api.objects["trials/out/clean.csv"]))
	assert.Equal(t, "text/csv", api.types["trials/out/clean.csv"])

	got, err := r.Open(ctx, "s3://trials/out/clean.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "site"}, got.Names())
	age, _ := got.Column("age")
	assert.True(t, age.Values[1].IsNull())

	require.NoError(t, r.Write(ctx, "s3://trials/out/clean.xlsx", tbl))
	got, err = r.Open(ctx, "s3://trials/out/clean.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumRows())
}

func TestResolverS3Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&Resolver{S3: newFakeS3()}).Open(ctx, "s3://trials/missing.csv")
	assert.ErrorIs(t, err, table.ErrNotFound)

	_, err = (&Resolver{}).Open(ctx, "s3://trials/raw.csv")
	assert.ErrorIs(t, err, table.ErrInvalidArgument, "no client configured")

	_, err = (&Resolver{S3: newFakeS3()}).Open(ctx, "s3://trials/raw.parquet")
	assert.ErrorIs(t, err, table.ErrInvalidArgument)
}

func TestResolverLocal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	r := &Resolver{}

	require.NoError(t, r.Write(ctx, path, table.MustNew(table.Floats("x", 1, 2))))

	got, err := r.Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumRows())
}
