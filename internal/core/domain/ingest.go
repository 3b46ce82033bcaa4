package domain

// IngestRequest - свободный текст объявления и, опционально,
// имена уже загруженных в каталог картинок.
type IngestRequest struct {
	FreeText   string
	ImageFiles []string
}

// CatalogEntry - объявление вместе с его позицией в коллекции.
// Позиция нужна для update/delete по индексу.
type CatalogEntry struct {
	Index   int
	Listing Listing
}

// Источник, из которого каталог получил данные
const (
	DataSourceCache   = "cache"
	DataSourceDurable = "durable"
)
