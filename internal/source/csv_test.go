package source

import (
	"errors"
	"strings"
	"testing"

	"hoteldash/internal/core"
)

func TestReadCSV(t *testing.T) {
	in := "# export\n" +
		"date,category,revenue,rooms_sold\n" +
		"2025-03-01,Direct,100,2\n" +
		"2025-03-01,,10,1\n" +
		"2025-03-02,Booking.com,\"1.250,00\",5\n"

	rows, invalid, err := ReadCSV(strings.NewReader(in), core.BookingChannel)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[1].Revenue != 1250 || rows[1].Dimension != core.BookingChannel {
		t.Fatalf("unexpected row: %+v", rows[1])
	}
	if len(invalid) != 1 {
		t.Fatalf("invalid = %d, want 1", len(invalid))
	}
	if invalid[0].Line != 4 || !errors.Is(invalid[0], core.ErrEmptyCategory) {
		t.Fatalf("unexpected row error: %v (line %d)", invalid[0], invalid[0].Line)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("date,category\n2025-03-01,Direct\n"), core.RoomType)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	if _, _, err := ReadCSV(strings.NewReader(""), core.RoomType); err == nil {
		t.Fatal("expected error for empty input")
	}
}
