package storage

import (
	"context"
	"io"
	"time"
)

// Service stores recipe image attachments in remote object storage.
type Service interface {
	// UploadObject stores body under key and returns the object location in
	// s3://bucket/key form.
	UploadObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	// GetObjectURL returns a presigned, time-limited fetch URL for the object.
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// ParseLocation splits an s3://bucket/key location into its parts. ok is
// false when the location is not in that form.
func ParseLocation(location string) (bucket, key string, ok bool) {
	const scheme = "s3://"
	if len(location) <= len(scheme) || location[:len(scheme)] != scheme {
		return "", "", false
	}
	rest := location[len(scheme):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			if i == 0 || i == len(rest)-1 {
				return "", "", false
			}
			return rest[:i], rest[i+1:], true
		}
	}
	return "", "", false
}
