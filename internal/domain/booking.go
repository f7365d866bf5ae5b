package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type SeatPreference string

const (
	SeatWindow SeatPreference = "window"
	SeatAisle  SeatPreference = "aisle"
	SeatMiddle SeatPreference = "middle"
)

func (p SeatPreference) Valid() bool {
	return p == SeatWindow || p == SeatAisle || p == SeatMiddle
}

type MealPreference string

const (
	MealRegular    MealPreference = "regular"
	MealVegetarian MealPreference = "vegetarian"
	MealVegan      MealPreference = "vegan"
	MealKosher     MealPreference = "kosher"
	MealHalal      MealPreference = "halal"
)

func (p MealPreference) Valid() bool {
	switch p {
	case MealRegular, MealVegetarian, MealVegan, MealKosher, MealHalal:
		return true
	}
	return false
}

type Booking struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	FlightID         string         `json:"flight_id"`
	PassengerName    string         `json:"passenger_name"`
	PassengerEmail   string         `json:"passenger_email"`
	PassengerPhone   string         `json:"passenger_phone"`
	SeatNumber       string         `json:"seat_number"`
	SeatPreference   SeatPreference `json:"seat_preference"`
	MealPreference   MealPreference `json:"meal_preference"`
	BookingReference string         `json:"booking_reference"`
	Status           BookingStatus  `json:"status"`
	PaymentStatus    PaymentStatus  `json:"payment_status"`
	TotalAmount      float64        `json:"total_amount"`
	Passengers       int            `json:"passengers"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	Flight *Flight      `json:"flight,omitempty"`
	User   *UserSummary `json:"user,omitempty"`
}

// SeatCount is the number of seats the booking holds on its flight.
func (b *Booking) SeatCount() int {
	if b.Passengers <= 0 {
		return 1
	}
	return b.Passengers
}

// BookingFilter narrows booking listings. An empty UserID lists everything.
type BookingFilter struct {
	UserID string
}

// adminTransitions lists the status changes an admin may force. Leaving
// cancelled is never allowed.
var adminTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusPending, BookingStatusCancelled},
}

// CanOverride reports whether an admin may move a booking from one status to another.
func CanOverride(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers        int     `json:"total_users"`
	TotalFlights      int     `json:"total_flights"`
	TotalBookings     int     `json:"total_bookings"`
	ConfirmedBookings int     `json:"confirmed_bookings"`
	Revenue           float64 `json:"revenue"`
}
