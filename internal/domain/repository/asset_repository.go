package repository

import "context"

// AssetRepository отдает статические файлы клиента: картинки маркеров и полигоны зон
type AssetRepository interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}
