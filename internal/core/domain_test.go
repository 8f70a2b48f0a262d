package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-03-09 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("got %q", d.String())
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	var q struct {
		From Date `json:"from"`
		To   Date `json:"to"`
	}
	if err := json.Unmarshal([]byte(`{"from":"2025-01-01","to":""}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !q.From.Equal(NewDate(2025, 1, 1).Time) || !q.To.IsZero() {
		t.Fatalf("unexpected dates: %+v", q)
	}
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"from":"2025-01-01","to":""}` {
		t.Fatalf("got %s", b)
	}
}

func TestDimensionIsValid(t *testing.T) {
	for _, d := range Dimensions() {
		if !d.IsValid() {
			t.Fatalf("%s should be valid", d)
		}
	}
	if Dimension("hotel").IsValid() {
		t.Fatalf("unknown dimension accepted")
	}
}

func TestDailyMetricValidate(t *testing.T) {
	good := DailyMetric{
		Date:      NewDate(2025, 1, 1),
		Dimension: BookingChannel,
		Category:  "Booking.com",
		Revenue:   1200,
		RoomsSold: 10,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := good.ADR(); got != 120 {
		t.Fatalf("ADR = %v, want 120", got)
	}

	cases := []struct {
		mutate func(*DailyMetric)
		want   error
	}{
		{func(m *DailyMetric) { m.Date = Date{} }, ErrInvalidDate},
		{func(m *DailyMetric) { m.Dimension = "hotel" }, ErrInvalidDimension},
		{func(m *DailyMetric) { m.Category = "  " }, ErrEmptyCategory},
		{func(m *DailyMetric) { m.Revenue = -1 }, ErrNegativeValue},
		{func(m *DailyMetric) { m.PreviousRoomsSold = math.NaN() }, ErrNonFinite},
		{func(m *DailyMetric) { m.RoomsSold = math.Inf(1) }, ErrNonFinite},
	}
	for i, tc := range cases {
		m := good
		tc.mutate(&m)
		if err := m.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestDailyMetricADRNoRooms(t *testing.T) {
	if got := (DailyMetric{Revenue: 100}).ADR(); got != 0 {
		t.Fatalf("ADR without rooms = %v, want 0", got)
	}
}

func TestQuery(t *testing.T) {
	q := Query{Dimension: GuestCountry, From: NewDate(2025, 1, 1), To: NewDate(2025, 1, 31)}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !q.Contains(NewDate(2025, 1, 15)) || q.Contains(NewDate(2025, 2, 1)) {
		t.Fatalf("Contains misreports range")
	}
	if q.Key() != "guest_country|2025-01-01|2025-01-31" {
		t.Fatalf("Key = %q", q.Key())
	}

	inverted := Query{Dimension: GuestCountry, From: NewDate(2025, 2, 1), To: NewDate(2025, 1, 1)}
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := (Query{Dimension: "x"}).Validate(); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
	if !(Query{Dimension: RoomType}).Contains(NewDate(1999, 1, 1)) {
		t.Fatalf("open range should contain any date")
	}
}
