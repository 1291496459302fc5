// Package source opens and writes tables at local paths and s3:// URIs.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// ObjectAPI is the subset of the S3 client the resolver uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Resolver maps a location to a table. Local paths are read from disk;
// s3://bucket/key URIs go through S3, which must be set to use them.
type Resolver struct {
	S3 ObjectAPI
}

// Location is a parsed dataset URI.
type Location struct {
	Bucket string // empty for local paths
	Key    string // object key, or the local path
}

// IsS3 reports whether the location names an object.
func (l Location) IsS3() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// ParseURI splits an s3:// URI into bucket and key. Anything else is a
// local path.
func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, table.Invalidf("empty dataset location")
	}
	if !strings.HasPrefix(uri, "s3://") {
		return Location{Key: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, table.Invalidf("invalid s3 uri %q: %v", uri, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, table.Invalidf("s3 uri %q needs a bucket and a key", uri)
	}
	return Location{Bucket: u.Host, Key: key}, nil
}

// Open reads the table at uri. The format follows the extension.
func (r *Resolver) Open(ctx context.Context, uri string) (*table.Table, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	format, err := table.FormatFromPath(loc.Key)
	if err != nil {
		return nil, err
	}
	if !loc.IsS3() {
		return table.Load(loc.Key)
	}

	api, err := r.client()
	if err != nil {
		return nil, err
	}
	resp, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, table.NotFoundf("object %q", loc.String())
		}
		return nil, fmt.Errorf("get %s: %w", loc, err)
	}
	defer func() { _ = resp.Body.Close() }()

	t, err := table.Read(resp.Body, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return t, nil
}

// Write stores t at uri, replacing what is there.
func (r *Resolver) Write(ctx context.Context, uri string, t *table.Table) error {
	loc, err := ParseURI(uri)
	if err != nil {
		return err
	}
	format, err := table.FormatFromPath(loc.Key)
	if err != nil {
		return err
	}
	if !loc.IsS3() {
		return table.Save(loc.Key, t)
	}

	api, err := r.client()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := table.Write(&buf, t, format); err != nil {
		return fmt.Errorf("encode %s: %w", loc, err)
	}
	_, err = api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType(format)),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", loc, err)
	}
	return nil
}

func (r *Resolver) client() (ObjectAPI, error) {
	if r.S3 == nil {
		return nil, table.Invalidf("s3 locations are not configured")
	}
	return r.S3, nil
}

func contentType(f table.Format) string {
	if f == table.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
