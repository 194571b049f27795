package ibcatalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/sources/web"
)

const (
	// HuggingFace dataset repository
	HFDatasetRepo = "instdin/institutional-books-1.0"

	// HFResolveURL is formatted with the repo and file name
	HFResolveURL = "https://huggingface.co/datasets/%s/resolve/main/%s"

	// DefaultShard is the first parquet shard of the train split
	DefaultShard = "data/train-00000-of-09831.parquet"

	// Default cache directory (similar to Python's datasets library)
	DefaultCacheDir = "~/.cache/huggingface/datasets"
)

// DownloadConfig configures dataset downloading
type DownloadConfig struct {
	CacheDir      string
	ForceDownload bool
	Token         string // HuggingFace token; the dataset is gated
	// ResolveURL overrides HFResolveURL
	ResolveURL string
	HTTPClient *http.Client
}

// Downloader fetches dataset shards from HuggingFace into a local cache
type Downloader struct {
	config DownloadConfig
}

func NewDownloader(config DownloadConfig) *Downloader {
	if config.CacheDir == "" {
		config.CacheDir = DefaultCacheDir
	}
	if config.ResolveURL == "" {
		config.ResolveURL = HFResolveURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	// Expand ~ to home directory
	if strings.HasPrefix(config.CacheDir, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			config.CacheDir = filepath.Join(homeDir, config.CacheDir[1:])
		}
	}

	return &Downloader{
		config: config,
	}
}

// CachePath returns the path where a dataset file would be cached
func (d *Downloader) CachePath(filename string) string {
	return filepath.Join(d.config.CacheDir, HFDatasetRepo, filename)
}

// Download fetches filename unless it is already cached and returns the local path
func (d *Downloader) Download(ctx context.Context, filename string) (string, error) {
	cachedPath := d.CachePath(filename)
	if err := os.MkdirAll(filepath.Dir(cachedPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	if !d.config.ForceDownload {
		if _, err := os.Stat(cachedPath); err == nil {
			slog.Info("Using cached dataset", "path", cachedPath)
			return cachedPath, nil
		}
	}

	slog.Info("Downloading dataset from HuggingFace", "repo", HFDatasetRepo, "file", filename)
	url := fmt.Sprintf(d.config.ResolveURL, HFDatasetRepo, filename)
	if err := d.downloadFile(ctx, url, cachedPath); err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}

	slog.Info("Dataset downloaded successfully", "path", cachedPath)
	return cachedPath, nil
}

// downloadFile streams url into a temp file next to destPath, then renames it into place
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", web.UserAgent)
	if d.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.config.Token)
	}

	resp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &web.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(out, &progressReader{r: resp.Body, total: resp.ContentLength})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move file: %w", err)
	}
	slog.Debug("Download complete", "path", destPath, "bytes", written)
	return nil
}

// progressReader logs every 10MB read
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	logged int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.read-p.logged >= 10*1024*1024 {
		p.logged = p.read
		args := []any{"downloaded_mb", p.read / (1024 * 1024)}
		if p.total > 0 {
			args = append(args, "total_mb", p.total/(1024*1024), "progress", fmt.Sprintf("%.1f%%", float64(p.read)/float64(p.total)*100))
		}
		slog.Debug("Download progress", args...)
	}
	return n, err
}

// ClearCache removes all cached dataset files
func (d *Downloader) ClearCache() error {
	cacheDir := filepath.Join(d.config.CacheDir, HFDatasetRepo)
	slog.Info("Clearing cache", "path", cacheDir)
	return os.RemoveAll(cacheDir)
}
