package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	BookingChannel Dimension = "booking_channel"
	MarketSegment  Dimension = "market_segment"
	GuestCountry   Dimension = "guest_country"
	RoomType       Dimension = "room_type"
)

const dateLayout = "2006-01-02"

type (
	// Dimension is the attribute categories are grouped by.
	Dimension string

	Date struct {
		time.Time
	}

	// DailyMetric is one category's figures for a single stay date, carrying
	// the comparison period alongside so no join is needed at read time.
	DailyMetric struct {
		ID                int64     `json:"id,omitempty"`
		Date              Date      `json:"date"`
		Dimension         Dimension `json:"dimension"`
		Category          string    `json:"category"`
		Code              string    `json:"code,omitempty"`
		Revenue           float64   `json:"revenue"`
		RoomsSold         float64   `json:"roomsSold"`
		PreviousRevenue   float64   `json:"previousRevenue"`
		PreviousRoomsSold float64   `json:"previousRoomsSold"`
	}

	// Query selects the rows feeding one dashboard panel.
	Query struct {
		Dimension Dimension
		From      Date
		To        Date
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNegativeValue    = errors.New("negative value")
	ErrNonFinite        = errors.New("non-finite value")
	ErrInvalidRange     = errors.New("from date is after to date")
)

// Dimensions lists every dimension the dashboard groups by.
func Dimensions() []Dimension {
	return []Dimension{BookingChannel, MarketSegment, GuestCountry, RoomType}
}

func (d Dimension) IsValid() bool {
	switch d {
	case BookingChannel, MarketSegment, GuestCountry, RoomType:
		return true
	default:
		return false
	}
}

func (d Dimension) String() string {
	return string(d)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ADR returns the current-period average daily rate, 0 when nothing was sold.
func (m DailyMetric) ADR() float64 {
	if m.RoomsSold <= 0 {
		return 0
	}
	return m.Revenue / m.RoomsSold
}

func (m DailyMetric) Validate() error {
	if err := m.Date.Validate(); err != nil {
		return err
	}
	if !m.Dimension.IsValid() {
		return ErrInvalidDimension
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if len(m.Category) > 120 {
		return errors.New("category too long (max 120 characters)")
	}
	for _, v := range []float64{m.Revenue, m.RoomsSold, m.PreviousRevenue, m.PreviousRoomsSold} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
		if v < 0 {
			return ErrNegativeValue
		}
	}
	return nil
}

func (q Query) Validate() error {
	if !q.Dimension.IsValid() {
		return ErrInvalidDimension
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To.Time) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether d falls inside the query range; open ends match.
func (q Query) Contains(d Date) bool {
	if !q.From.IsZero() && d.Before(q.From.Time) {
		return false
	}
	if !q.To.IsZero() && d.After(q.To.Time) {
		return false
	}
	return true
}

// Key identifies the query for caching.
func (q Query) Key() string {
	return q.Dimension.String() + "|" + q.From.String() + "|" + q.To.String()
}
