package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/venue-map-service/internal/domain/repository"
)

// максимальный размер статического файла
const maxAssetSize = 8 << 20

// NewFetcher выбирает реализацию по адресу: http(s):// или каталог на диске
func NewFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) repository.AssetRepository {
	if strings.HasPrefix(baseURL, "http://") || strings.HasPrefix(baseURL, "https://") {
		return NewHTTPFetcher(baseURL, timeout, logger)
	}
	return NewDirFetcher(strings.TrimPrefix(baseURL, "file://"), logger)
}

type httpFetcher struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewHTTPFetcher загружает файлы с веб-сервера клиента
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) repository.AssetRepository {
	return &httpFetcher{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	url := f.baseURL + path.Clean("/"+p)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("Failed to fetch asset", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch %s: %w", p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("asset %s: status %d, body: %s", p, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset %s exceeds %d bytes", p, maxAssetSize)
	}
	return data, nil
}

type dirFetcher struct {
	root   string
	logger *zap.Logger
}

// NewDirFetcher читает файлы из каталога; пути не выходят за его пределы
func NewDirFetcher(root string, logger *zap.Logger) repository.AssetRepository {
	return &dirFetcher{root: root, logger: logger}
}

func (f *dirFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := filepath.FromSlash(path.Clean("/" + p))
	full := filepath.Join(f.root, rel)

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("asset %s is a directory", p)
	}
	if info.Size() > maxAssetSize {
		return nil, fmt.Errorf("asset %s exceeds %d bytes", p, maxAssetSize)
	}

	return os.ReadFile(full)
}
