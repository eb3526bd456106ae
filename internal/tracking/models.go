package tracking

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tracker-parent/internal/shared/geo"
	"tracker-parent/internal/shared/timeutil"
)

// Location is one observed position. Speed and Direction are nil when the
// device did not capture them. OccurredAt is zero when the service sent no
// readable timestamp.
type Location struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      *float64  `json:"speed,omitempty"`
	Direction  *float64  `json:"direction,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
}

// MarshalJSON leaves out timestamps the service did not send.
func (l Location) MarshalJSON() ([]byte, error) {
	type fields Location
	out := struct {
		fields
		OccurredAt *time.Time `json:"occurred_at,omitempty"`
		RecordedAt *time.Time `json:"recorded_at,omitempty"`
	}{fields: fields(l)}
	if !l.OccurredAt.IsZero() {
		out.OccurredAt = &l.OccurredAt
	}
	if !l.RecordedAt.IsZero() {
		out.RecordedAt = &l.RecordedAt
	}
	return json.Marshal(out)
}

func (l Location) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: l.Latitude, Lng: l.Longitude}
}

// LocationDTO is the geo service's wire form: decimals travel as strings and
// "-1" means "not captured".
type LocationDTO struct {
	ID              int64   `json:"id"`
	UserName        string  `json:"userName"`
	Latitude        string  `json:"latitude"`
	Longitude       string  `json:"longitude"`
	Speed           *string `json:"speed"`
	Direction       *string `json:"direction"`
	DateTimeOcurred string  `json:"dateTimeOcurred"`
	CreatedDateTime string  `json:"createdDateTime"`
}

const absentSentinel = "-1"

func (d LocationDTO) ToLocation() (Location, error) {
	lat, err := decimal.NewFromString(strings.TrimSpace(d.Latitude))
	if err != nil {
		return Location{}, fmt.Errorf("location %d: latitude %q: %w", d.ID, d.Latitude, err)
	}
	lng, err := decimal.NewFromString(strings.TrimSpace(d.Longitude))
	if err != nil {
		return Location{}, fmt.Errorf("location %d: longitude %q: %w", d.ID, d.Longitude, err)
	}

	loc := Location{
		ID:        d.ID,
		Username:  d.UserName,
		Latitude:  lat.InexactFloat64(),
		Longitude: lng.InexactFloat64(),
	}
	if loc.Speed, err = optionalDecimal(d.Speed); err != nil {
		return Location{}, fmt.Errorf("location %d: speed: %w", d.ID, err)
	}
	if loc.Direction, err = optionalDecimal(d.Direction); err != nil {
		return Location{}, fmt.Errorf("location %d: direction: %w", d.ID, err)
	}
	loc.OccurredAt, _ = timeutil.ParseISO(d.DateTimeOcurred)
	loc.RecordedAt, _ = timeutil.ParseISO(d.CreatedDateTime)
	return loc, nil
}

func optionalDecimal(s *string) (*float64, error) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || v == absentSentinel {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	f := d.InexactFloat64()
	return &f, nil
}

// LocationRequest is the body of both location queries.
type LocationRequest struct {
	Username  string `json:"username"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
