package domain

import "time"

type FlightStatus string

const (
	FlightStatusActive    FlightStatus = "active"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusDelayed   FlightStatus = "delayed"
)

func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusActive, FlightStatusCancelled, FlightStatusDelayed:
		return true
	}
	return false
}

type Flight struct {
	ID             string       `json:"id"`
	FlightNumber   string       `json:"flight_number"`
	Airline        string       `json:"airline"`
	Origin         string       `json:"origin"`
	Destination    string       `json:"destination"`
	DepartureTime  time.Time    `json:"departure_time"`
	ArrivalTime    time.Time    `json:"arrival_time"`
	Price          float64      `json:"price"`
	AvailableSeats int          `json:"available_seats"`
	TotalSeats     int          `json:"total_seats"`
	AircraftType   string       `json:"aircraft_type"`
	Status         FlightStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type FlightSort string

const (
	SortByPrice     FlightSort = "price"
	SortByDeparture FlightSort = "departure"
	// SortByDuration is accepted but orders by departure time.
	SortByDuration FlightSort = "duration"
)

// FlightFilter selects active flights for the catalog search.
type FlightFilter struct {
	Origin      string
	Destination string
	// DepartureFrom/DepartureTo bound departure_time as [from, to) when set.
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	SortBy        FlightSort
	Limit         int
	Offset        int
}

type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalFlights int  `json:"total_flights"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}

// NewPagination derives page metadata for a 1-indexed page.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalFlights: total,
		HasNext:      page*limit < total,
		HasPrev:      page > 1,
	}
}
