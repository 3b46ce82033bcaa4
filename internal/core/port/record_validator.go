package port

// RecordValidatorPort проверяет структуру записи, полученной от текстового сервиса,
// до того как она превратится в Listing.
type RecordValidatorPort interface {
	ValidateRecord(record map[string]interface{}) error
}
