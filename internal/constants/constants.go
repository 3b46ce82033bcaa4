package constants

// Ключ, под которым коллекция лежит в Cache Tier
const CacheKeyRooms = "roomsData"

// Обменник и ключи маршрутизации событий
const (
	ExchangeListingEvents     = "room_listing_events"
	RoutingKeyListingIngested = "listing.ingested"
	RoutingKeyAssetsCollected = "assets.collected"
)

// Значения по умолчанию для хранилищ
const (
	DefaultDataFile  = "data.json"
	DefaultAssetsDir = "assets/images"
	// AssetsPublicPrefix - как картинки из каталога упоминаются в images
	AssetsPublicPrefix = "assets/images"
)
