package rest

import (
	"bytes"
	"encoding/json"
	"strings"

	"room-listing-service/internal/core/domain"
)

type MessageResponseDTO struct {
	Message string `json:"message"`
}

// IngestRequestDTO: phongTroText - имя поля в старом клиенте
type IngestRequestDTO struct {
	FreeText     string   `json:"freeText"`
	PhongTroText string   `json:"phongTroText"`
	Images       []string `json:"images"`
}

func (d IngestRequestDTO) text() string {
	if strings.TrimSpace(d.FreeText) != "" {
		return d.FreeText
	}
	return d.PhongTroText
}

type IngestResponseDTO struct {
	Message string           `json:"message"`
	RoomID  domain.ListingID `json:"roomId"`
	Room    domain.Listing   `json:"room"`
}

// FlexibleID принимает id и числом, и строкой
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

type FetchImageRequestDTO struct {
	RoomID   FlexibleID `json:"roomId"`
	ImageURL string     `json:"imageUrl"`
}

type FetchImageResponseDTO struct {
	File string `json:"file"`
	Path string `json:"path"`
}

type UploadImagesResponseDTO struct {
	Files []string `json:"files"`
	Paths []string `json:"paths"`
}

type CleanupResponseDTO struct {
	Deleted  int      `json:"deleted"`
	Files    []string `json:"files"`
	Failed   []string `json:"failed,omitempty"`
	Retained int      `json:"retained"`
}

type CatalogEntryDTO struct {
	Index int            `json:"index"`
	Room  domain.Listing `json:"room"`
}

type CatalogResponseDTO struct {
	Source string            `json:"source"`
	Total  int               `json:"total"`
	Rooms  []CatalogEntryDTO `json:"rooms"`
}

type RoomsResponseDTO struct {
	Source string           `json:"source,omitempty"`
	Rooms  []domain.Listing `json:"rooms"`
}

type SourceResponseDTO struct {
	Source string `json:"source"`
}

func toCatalogEntries(entries []domain.CatalogEntry) []CatalogEntryDTO {
	out := make([]CatalogEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = CatalogEntryDTO{Index: e.Index, Room: e.Listing}
	}
	return out
}
