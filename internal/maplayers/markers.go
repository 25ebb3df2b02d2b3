package maplayers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/venue-map-service/internal/domain/repository"
	"github.com/venue-map-service/internal/mapengine"
)

const (
	markerPixelRatio       = 2
	defaultMarkerCacheSize = 64
)

// MarkerImages загружает картинки маркеров и регистрирует их на картах.
// Декодированные картинки общие для всех сессий.
type MarkerImages struct {
	assets repository.AssetRepository
	cache  *lru.Cache[string, image.Image]
	logger *zap.Logger
}

func NewMarkerImages(assets repository.AssetRepository, cacheSize int, logger *zap.Logger) (*MarkerImages, error) {
	if cacheSize <= 0 {
		cacheSize = defaultMarkerCacheSize
	}
	cache, err := lru.New[string, image.Image](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create marker cache: %w", err)
	}

	return &MarkerImages{
		assets: assets,
		cache:  cache,
		logger: logger,
	}, nil
}

// ImageID - id картинки по хешу пути: img_<base36>
func ImageID(path string) string {
	return "img_" + strconv.FormatUint(xxhash.Sum64String(path), 36)
}

// Ensure регистрирует картинку на карте, если ее там еще нет, и возвращает ее id.
// Ошибка загрузки или декодирования возвращается как есть.
func (mi *MarkerImages) Ensure(ctx context.Context, m mapengine.Map, path string) (string, error) {
	id := ImageID(path)
	if m.HasImage(id) {
		return id, nil
	}

	bitmap, err := mi.load(ctx, path)
	if err != nil {
		return "", err
	}

	err = m.AddImage(id, mapengine.Image{Bitmap: bitmap, PixelRatio: markerPixelRatio})
	if err != nil && !errors.Is(err, mapengine.ErrImageExists) {
		return "", err
	}
	return id, nil
}

func (mi *MarkerImages) load(ctx context.Context, path string) (image.Image, error) {
	if img, ok := mi.cache.Get(path); ok {
		return img, nil
	}

	data, err := mi.assets.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch marker %s: %w", path, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode marker %s: %w", path, err)
	}

	mi.cache.Add(path, img)
	mi.logger.Debug("Marker image loaded",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
	)
	return img, nil
}
