package constants

const (
	// TimeFormat is the wall-clock format used for scheduled times (HH:MM, 24-hour)
	TimeFormat = "15:04"

	// TimestampFormat is the format of created_at / updated_at values
	TimestampFormat = "2006-01-02T15:04:05Z07:00"
)
