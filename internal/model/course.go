package model

import "time"

// Course is a disc golf course record. Courses are produced by an
// external scraper/geocoder; this system only consumes them. Latitude
// and Longitude are nil until the geocoder has resolved the address;
// a course without a point is excluded from spatial queries.
type Course struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RawName   string    `json:"raw_name,omitempty"`
	Address   string    `json:"address,omitempty"`
	HoleCount int       `json:"hole_count,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPoint reports whether the course has geocoded coordinates and is
// therefore eligible for containment queries.
func (c *Course) HasPoint() bool {
	return c.Latitude != nil && c.Longitude != nil
}
