package media

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/brioso-market/internal/config"
)

var pngURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

func TestParseDataURI(t *testing.T) {
	img, err := ParseDataURI(pngURI)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, []byte("\x89PNG fake"), img.Data)
	assert.Equal(t, ".png", img.Ext())

	img, err = ParseDataURI("data:;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", img.MediaType)
	assert.Equal(t, ".bin", img.Ext())

	img, err = ParseDataURI("data:image/jpeg;name=x.jpg;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MediaType)
	assert.Equal(t, ".jpg", img.Ext())
}

func TestParseDataURI_Invalid(t *testing.T) {
	for _, uri := range []string{
		"/images/arabica.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
	} {
		_, err := ParseDataURI(uri)
		assert.ErrorIs(t, err, ErrInvalidDataURI, uri)
	}
}

func TestParseDataURI_TooLarge(t *testing.T) {
	payload := strings.Repeat("A", (MaxImageBytes/3+10)*4)
	_, err := ParseDataURI("data:image/png;base64," + payload)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestInline_Save(t *testing.T) {
	ctx := context.Background()
	var s Store = Inline{}

	got, err := s.Save(ctx, "products", "/images/mezcla.png")
	require.NoError(t, err)
	assert.Equal(t, "/images/mezcla.png", got)

	got, err = s.Save(ctx, "products", pngURI)
	require.NoError(t, err)
	assert.Equal(t, pngURI, got)

	_, err = s.Save(ctx, "products", "data:image/png;base64,###")
	assert.ErrorIs(t, err, ErrInvalidDataURI)
}

func TestMinioStore_PassesThroughPlainURLs(t *testing.T) {
	s, err := NewMinioStore(config.MediaConfig{
		Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "brioso-images",
	}, nil)
	require.NoError(t, err)

	got, err := s.Save(context.Background(), "avatars", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", got)
}

func TestNewMinioStore_RequiresCredentials(t *testing.T) {
	_, err := NewMinioStore(config.MediaConfig{}, nil)
	assert.Error(t, err)
	_, err = NewMinioStore(config.MediaConfig{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/imgs",
		publicBaseURL(config.MediaConfig{Endpoint: "localhost:9000", Bucket: "imgs"}))
	assert.Equal(t, "https://s3.example.com/imgs",
		publicBaseURL(config.MediaConfig{Endpoint: "s3.example.com", Bucket: "imgs", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(config.MediaConfig{PublicBaseURL: "https://cdn.example.com/"}))
}

func TestObjectKey(t *testing.T) {
	key := objectKey("/products/", &DataURI{MediaType: "image/webp"})
	assert.True(t, strings.HasPrefix(key, "products/"))
	assert.True(t, strings.HasSuffix(key, ".webp"))
	assert.Len(t, key, len("products/")+36+len(".webp"))
}
