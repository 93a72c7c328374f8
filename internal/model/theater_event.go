package model

// TheaterEvent represents a production in the repertoire.  One
// TheaterEvent is performed many times; each performance is a
// separate ScheduleEvent.  The record is effectively immutable
// reference data maintained by administrators.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name of the production.
//  Flag Premiere     – whether the production is marked as a premiere.
//  MinAgeChild       – lower bound of the target age range in years.
//  MaxAgeChild       – upper bound of the target age range in years.
//  DurationMin       – running time in minutes.
//  AllowBirthdays    – whether birthday parties may be booked against
//                      this production.
//  MaxBirthdayGuests – maximum party size when AllowBirthdays is set.
//  IndividualPricing – when set, prices for this production come from
//                      the admin-configured override table instead of
//                      the ticket type's base price.
//  Category          – production category (e.g. "spektakl",
//                      "workshop"); used for pricing option tags and
//                      the seat-ratio exemption.
type TheaterEvent struct {
	ID                int64   // theater_events.id
	Name              string  // theater_events.name
	Premiere          bool    // theater_events.premiere
	MinAgeChild       float64 // theater_events.min_age_child
	MaxAgeChild       float64 // theater_events.max_age_child
	DurationMin       int     // theater_events.duration_min
	AllowBirthdays    bool    // theater_events.allow_birthdays
	MaxBirthdayGuests int     // theater_events.max_birthday_guests
	IndividualPricing bool    // theater_events.individual_pricing
	Category          string  // theater_events.category
}
