package api

import (
	"strconv"
	"time"
)

const (
	oneDay   = 24 * time.Hour
	oneMonth = 30 * oneDay
	oneYear  = 365 * oneDay
)

// Timestamp is a point in time in unix seconds, as the API sends it.
type Timestamp int64

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

// Yesterday is local midnight one day before today.
func Yesterday() Timestamp {
	return daysBefore(time.Now(), oneDay)
}

// LastMonth is local midnight thirty days before today.
func LastMonth() Timestamp {
	return daysBefore(time.Now(), oneMonth)
}

// LastYear is local midnight 365 days before today.
func LastYear() Timestamp {
	return daysBefore(time.Now(), oneYear)
}

func daysBefore(now time.Time, span time.Duration) Timestamp {
	days := int(span / oneDay)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return TimestampFromTime(midnight.AddDate(0, 0, -days))
}

func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

func (t Timestamp) IsZero() bool {
	return t == 0
}

// Param renders t as a request parameter value.
func (t Timestamp) Param() string {
	return strconv.FormatInt(int64(t), 10)
}

func (t Timestamp) String() string {
	return t.Time().UTC().Format(time.RFC3339)
}
