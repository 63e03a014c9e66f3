package s3

import (
	"context"
	"io"
	"time"
)

// Object is a readable blob together with its metadata.
type Object interface {
	io.ReadCloser
	ContentLength() int64
	ContentType() string
}

type object struct {
	io.ReadCloser
	contentLength int64
	contentType   string
}

func (o *object) ContentLength() int64 {
	return o.contentLength
}

func (o *object) ContentType() string {
	return o.contentType
}

// Storage is the blob store behind FDV files and their previews.
type Storage interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) (Object, error)
	DeleteObject(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
