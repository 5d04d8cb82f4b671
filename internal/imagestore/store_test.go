package imagestore_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/dating-app/internal/config"
	"github.com/oggyb/dating-app/internal/imagestore"
)

type recorded struct {
	method string
	path   string
	body   int
}

// fakeS3 accepts every request and records what it saw.
func fakeS3(t *testing.T) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: len(b)})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func newStore(t *testing.T, endpoint string) *imagestore.S3Store {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Endpoint = endpoint
	cfg.Storage.Bucket = "photos-bucket"
	cfg.Storage.Region = "us-east-1"
	cfg.Storage.AccessKeyID = "test"
	cfg.Storage.SecretAccessKey = "test"
	cfg.Storage.UsePathStyle = true
	cfg.Storage.PublicURL = "https://cdn.test"

	store, err := imagestore.NewS3Store(context.Background(), cfg)
	require.NoError(t, err)
	return store
}

func TestS3Store_PutAndDelete(t *testing.T) {
	srv, calls := fakeS3(t)
	store := newStore(t, srv.URL)
	ctx := context.Background()

	body := []byte("jpeg-bytes")
	url, err := store.Put(ctx, "photos/alice/x.jpg", bytes.NewReader(body), int64(len(body)), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/photos/alice/x.jpg", url)

	require.NoError(t, store.Delete(ctx, "photos/alice/x.jpg"))

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/photos-bucket/photos/alice/x.jpg", got[0].path)
	assert.Equal(t, http.MethodDelete, got[1].method)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := imagestore.NewS3Store(context.Background(), &config.Config{})
	assert.Error(t, err)
}

func TestPhotoKey(t *testing.T) {
	k1, k2 := imagestore.PhotoKey("alice"), imagestore.PhotoKey("alice")
	assert.True(t, strings.HasPrefix(k1, "photos/alice/"))
	assert.True(t, strings.HasSuffix(k1, ".jpg"))
	assert.NotEqual(t, k1, k2)
}

func TestNormalize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for x := 0; x < 800; x++ {
		for y := 0; y < 600; y++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, err := imagestore.Normalize(&in, 500)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 500, img.Bounds().Dy())

	_, err = imagestore.Normalize(strings.NewReader("not an image"), 500)
	assert.Error(t, err)
}

// oversizedPNG encodes a small PNG and rewrites its IHDR to declare w x h.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	b := buf.Bytes()

	// 8 byte signature, 4 byte length, "IHDR", then width and height
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestNormalize_RejectsOversizedDimensions(t *testing.T) {
	_, err := imagestore.Normalize(bytes.NewReader(oversizedPNG(t, 20000, 20000)), 500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 8000x8000")

	_, err = imagestore.Normalize(bytes.NewReader(oversizedPNG(t, 8001, 10)), 500)
	assert.Error(t, err)
}
