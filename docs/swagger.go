// Package docs Venue Map Service API.
//
// Сервис держит серверные карты площадок соревнований: на каждую сессию клиента
// строится стиль Mapbox GL с кластерными слоями категорий мест, контурами зон,
// маршрутом до площадки и анимацией выбранной точки.
//
// Основные возможности:
// - Создание и уничтожение карт сессий
// - Маршрут от пользователя до площадки с пошаговыми подсказками
// - Смена подложки с сохранением камеры, видимости и маршрута
// - Выделение и анимация точек категорий
// - Поиск мест через Mapbox Geocoding
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
