package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocation(t *testing.T) {
	bucket, key, ok := ParseLocation("s3://my-bucket/recipe-images/recipes/7/abc.png")
	assert.True(t, ok)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "recipe-images/recipes/7/abc.png", key)

	for _, bad := range []string{
		"",
		"s3://",
		"s3://bucket-only",
		"s3://bucket/",
		"s3:///key",
		"https://example.com/x",
	} {
		_, _, ok := ParseLocation(bad)
		assert.False(t, ok, bad)
	}
}
