package aws

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	cerror "training-job-runner/core/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// putObjectAPI is the part of the S3 client the exporter needs
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client exports model artifacts to S3
type Client struct {
	s3Client putObjectAPI
	bucket   string
	prefix   string
}

// NewClient creates an S3 exporter for destURI (s3://bucket/prefix)
func NewClient(ctx context.Context, region string, destURI string) (*Client, error) {
	bucket, prefix, err := ParseS3URI(destURI)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrArtifactExportFailed, err, destURI)
	}

	return newClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newClient(api putObjectAPI, bucket, prefix string) *Client {
	return &Client{
		s3Client: api,
		bucket:   bucket,
		prefix:   prefix,
	}
}

// Export uploads body to <prefix>/<jobID>/<file name> and returns the object URI
func (c *Client) Export(ctx context.Context, jobID string, localPath string, body []byte) (string, error) {
	key := path.Join(c.prefix, jobID, filepath.Base(localPath))
	uri := "s3://" + c.bucket + "/" + key

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return "", cerror.WrapError(cerror.ErrArtifactExportFailed, err, uri)
	}
	return uri, nil
}

// ParseS3URI splits s3://bucket/prefix into bucket and prefix
func ParseS3URI(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", cerror.WrapError(cerror.ErrArtifactExportFailed, err, raw)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", cerror.ErrArtifactExportFailed.GenWithStackByArgs(raw + " (want s3://bucket/prefix)")
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
