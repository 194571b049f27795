package ibcatalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/datasets/"+HFDatasetRepo+"/resolve/main/data/shard.parquet", r.URL.Path)
		assert.Equal(t, "Bearer hf_token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("PAR1"))
	}))
	defer server.Close()

	cfg := DownloadConfig{
		CacheDir:   t.TempDir(),
		Token:      "hf_token",
		ResolveURL: server.URL + "/datasets/%s/resolve/main/%s",
		HTTPClient: server.Client(),
	}
	d := NewDownloader(cfg)

	path, err := d.Download(context.Background(), "data/shard.parquet")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.CacheDir, HFDatasetRepo, "data", "shard.parquet"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(data))

	// a second call is served from the cache
	_, err = d.Download(context.Background(), "data/shard.parquet")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	cfg.ForceDownload = true
	_, err = NewDownloader(cfg).Download(context.Background(), "data/shard.parquet")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	require.NoError(t, d.ClearCache())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDownload_Gated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gated", http.StatusUnauthorized)
	}))
	defer server.Close()

	d := NewDownloader(DownloadConfig{
		CacheDir:   t.TempDir(),
		ResolveURL: server.URL + "/%s/%s",
		HTTPClient: server.Client(),
	})
	path := d.CachePath("shard.parquet")

	_, err := d.Download(context.Background(), "shard.parquet")
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file is left behind")
	_, statErr = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}
