package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func sampleRooms() []Listing {
	return []Listing{
		{ID: NewListingID(1), Title: "Phòng trọ Bình Thạnh", Address: "12 Nguyễn Văn Trỗi, Bình Thạnh", Price: ptr(2.5)},
		{ID: NewListingID(2), Title: "Căn hộ mini", Address: "45 Quang Trung, Gò Vấp", Price: ptr(3), Description: "Gần chợ Đồng Tâm"},
		{ID: NewListingID(3), Title: "Studio", Address: "Phan Xích Long, Phú Nhuận", Price: ptr(5.5)},
		{ID: NewListingID(4), Title: "Nhà nguyên căn", Address: "Cộng Hòa, Tân Bình", Price: ptr(12)},
		{ID: NewListingID(5), Title: "Chưa có giá", Address: "Quận 1"},
	}
}

func ids(listings []Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID.String())
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "binh thanh", Normalize("  Bình Thạnh "))
	assert.Equal(t, "dong tam", Normalize("Đồng Tâm"))
	assert.Equal(t, "nguyen van troi", Normalize("NGUYỄN VĂN TRỖI"))
	assert.Equal(t, "", Normalize(""))
}

func TestSearch_DiacriticInsensitive(t *testing.T) {
	rooms := sampleRooms()

	assert.Equal(t, []string{"1"}, ids(Search(rooms, "binh thanh")))
	assert.Equal(t, []string{"2"}, ids(Search(rooms, "dong tam")))
	assert.Equal(t, []string{"2"}, ids(Search(rooms, "GÒ VẤP")))
	assert.Len(t, Search(rooms, ""), len(rooms))
	assert.Empty(t, Search(rooms, "vung tau"))
}

func TestFilterByPrice(t *testing.T) {
	rooms := sampleRooms()

	assert.Equal(t, []string{"1"}, ids(FilterByPrice(rooms, PriceUnder3)))
	assert.Equal(t, []string{"2"}, ids(FilterByPrice(rooms, Price3To5)))
	assert.Equal(t, []string{"3"}, ids(FilterByPrice(rooms, Price5To10)))
	assert.Equal(t, []string{"4"}, ids(FilterByPrice(rooms, PriceOver10)))
	assert.Len(t, FilterByPrice(rooms, "whatever"), len(rooms))
}

func TestPriceBucketBoundaries(t *testing.T) {
	assert.True(t, Price3To5.InBucket(ptr(5)))
	assert.False(t, Price5To10.InBucket(ptr(5)))
	assert.True(t, Price5To10.InBucket(ptr(10)))
	assert.False(t, PriceOver10.InBucket(ptr(10)))
	assert.False(t, PriceUnder3.InBucket(nil))
}

func TestMatchesArea(t *testing.T) {
	assert.True(t, MatchesArea("12 Nguyễn Văn Trỗi, Bình Thạnh", "binh-thanh"))
	assert.False(t, MatchesArea("12 Nguyễn Văn Trỗi, Bình Thạnh", "go-vap"))
	assert.False(t, MatchesArea("12 Nguyễn Văn Trỗi, Bình Thạnh", "unknown-area"))

	for code := range DefaultAreaKeywords() {
		assert.False(t, MatchesArea("Quận 1, TP.HCM", code), code)
	}
}

func TestAreaKeywords_Custom(t *testing.T) {
	areas := AreaKeywords{"q1": {"Quận 1"}}
	assert.True(t, areas.Matches("12 Lê Lợi, quan 1", "q1"))
	assert.False(t, areas.Matches("12 Lê Lợi, quan 1", "binh-thanh"))
}

func TestRoomFilter_Apply(t *testing.T) {
	rooms := sampleRooms()

	got := RoomFilter{Price: PriceOver10, AreaCode: "tan-binh"}.Apply(rooms, nil)
	assert.Equal(t, []string{"4"}, ids(got))

	got = RoomFilter{Query: "phong", AreaCode: "go-vap"}.Apply(rooms, nil)
	assert.Empty(t, got)

	assert.Len(t, RoomFilter{}.Apply(rooms, nil), len(rooms))
}
