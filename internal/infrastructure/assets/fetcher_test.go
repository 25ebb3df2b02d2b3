package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markers/pin.png":
			w.Write([]byte("png-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("no such file"))
		}
	}))
	defer server.Close()

	f := NewFetcher(server.URL+"/", time.Second, zap.NewNop())

	t.Run("found", func(t *testing.T) {
		data, err := f.Fetch(context.Background(), "/markers/pin.png")
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "/markers/missing.png")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})
}

func TestDirFetcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "data", "zone.json"), []byte(`{"type":"Polygon"}`), 0o644))

	outside := filepath.Join(filepath.Dir(root), "secret.txt")
	_ = os.WriteFile(outside, []byte("secret"), 0o644)
	defer os.Remove(outside)

	f := NewFetcher(root, time.Second, zap.NewNop())

	data, err := f.Fetch(context.Background(), "/data/zone.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Polygon"}`, string(data))

	_, err = f.Fetch(context.Background(), "/data/missing.json")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "/data")
	assert.Error(t, err)

	// выход за корень невозможен
	_, err = f.Fetch(context.Background(), "../secret.txt")
	assert.Error(t, err)
}
