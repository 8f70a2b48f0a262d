package memory

import "hoteldash/internal/core"

type demoCategory struct {
	name    string
	revenue float64
	rooms   float64
}

var demoCategories = map[core.Dimension][]demoCategory{
	core.BookingChannel: {
		{"Booking.com", 2400, 20},
		{"Direct", 1800, 12},
		{"Expedia", 900, 8},
		{"Airbnb", 600, 5},
		{"Travel Agent", 300, 3},
		{"Corporate", 250, 2},
		{"Phone", 120, 1},
	},
	core.MarketSegment: {
		{"Leisure", 3000, 25},
		{"Business", 1500, 10},
		{"Groups", 800, 9},
		{"Long Stay", 400, 6},
	},
	core.GuestCountry: {
		{"Italy", 1700, 14},
		{"Germany", 1200, 9},
		{"United Kingdom", 1100, 8},
		{"France", 700, 6},
		{"United States", 650, 4},
		{"Malta (Gozo)", 300, 3},
		{"Spain", 250, 2},
	},
	core.RoomType: {
		{"Double", 2600, 24},
		{"Suite", 1900, 7},
		{"Single", 700, 9},
		{"Family", 500, 3},
	},
}

// DemoRows builds a deterministic data set covering every dimension for the
// given number of days starting at start.
func DemoRows(start core.Date, days int) []core.DailyMetric {
	var out []core.DailyMetric
	for _, dim := range core.Dimensions() {
		for k, c := range demoCategories[dim] {
			for i := 0; i < days; i++ {
				swing := float64((i*3 + k) % 7)
				rooms := c.rooms + float64((i+k)%3)
				prevRooms := c.rooms + float64((i+2*k)%2)
				out = append(out, core.DailyMetric{
					Date:              core.Date{Time: start.AddDate(0, 0, i)},
					Dimension:         dim,
					Category:          c.name,
					Revenue:           c.revenue + 10*swing,
					RoomsSold:         rooms,
					PreviousRevenue:   c.revenue - 5*float64((i+2*k)%4),
					PreviousRoomsSold: prevRooms,
				})
			}
		}
	}
	return out
}
