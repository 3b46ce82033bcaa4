package domain

// NextListingID возвращает id, которого гарантированно нет среди валидных id.
// Невалидные id (null, строки) игнорируются; пустой набор даёт 1.
func NextListingID(listings []Listing) int64 {
	var (
		maxID int64
		found bool
	)
	for _, l := range listings {
		v, ok := l.ID.Int64()
		if !ok {
			continue
		}
		if !found || v > maxID {
			maxID, found = v, true
		}
	}
	if !found {
		return 1
	}
	return maxID + 1
}

// ContainsID проверяет, занят ли id в наборе.
func ContainsID(listings []Listing, id int64) bool {
	for _, l := range listings {
		if v, ok := l.ID.Int64(); ok && v == id {
			return true
		}
	}
	return false
}
