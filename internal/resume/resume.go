// Package resume locates the downloadable résumé document.
package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultFilename is the attachment name offered to the browser.
const DefaultFilename = "Dev Swami.pdf"

// File is an open résumé body. Size is -1 when unknown.
type File struct {
	Body        io.ReadCloser
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Source opens the résumé.
type Source interface {
	Open(ctx context.Context) (*File, error)
}

// FSSource reads the résumé from a filesystem, such as the embedded assets.
type FSSource struct {
	FS   fs.FS
	Name string
}

// Open implements Source.
func (s FSSource) Open(_ context.Context) (*File, error) {
	if s.FS == nil {
		return nil, errors.New("resume filesystem is nil")
	}
	f, err := s.FS.Open(s.Name)
	if err != nil {
		return nil, fmt.Errorf("open resume: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat resume: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("resume %s is a directory", s.Name)
	}
	return &File{Body: f, Size: info.Size(), ModTime: info.ModTime(), ContentType: "application/pdf"}, nil
}

// FileSource reads the résumé from a path on disk.
type FileSource struct {
	Path string
}

// Open implements Source.
func (s FileSource) Open(ctx context.Context) (*File, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open resume: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat resume: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("resume %s is a directory", s.Path)
	}
	return &File{Body: f, Size: info.Size(), ModTime: info.ModTime(), ContentType: "application/pdf"}, nil
}

// GetObjectAPI is the subset of the S3 client used by S3Source.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source streams the résumé from an S3 object.
type S3Source struct {
	Client GetObjectAPI
	Bucket string
	Key    string
}

// NewS3Source builds an S3Source using the default AWS credential chain.
func NewS3Source(ctx context.Context, region, bucket, key string) (*S3Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Source{Client: s3.NewFromConfig(cfg), Bucket: bucket, Key: key}, nil
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context) (*File, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = "application/pdf"
	}
	return &File{Body: out.Body, Size: size, ModTime: aws.ToTime(out.LastModified), ContentType: ct}, nil
}
