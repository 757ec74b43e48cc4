package ledger

import (
	"fmt"
	"math"
	"time"
)

// Kind selects one of the two per-user ledgers.
type Kind string

const (
	KindConsumption Kind = "consumption"
	KindProduction  Kind = "production"
)

// DateLayout is the ISO calendar date format used for ledger keys.
const DateLayout = "2006-01-02"

// HoursPerDay is the length of every normalized series.
const HoursPerDay = 24

// hourLabels holds the canonical "HH:00" labels in order.
var hourLabels = func() [HoursPerDay]string {
	var labels [HoursPerDay]string
	for h := 0; h < HoursPerDay; h++ {
		labels[h] = fmt.Sprintf("%02d:00", h)
	}
	return labels
}()

// HourLabels returns the 24 canonical hour labels, "00:00" through "23:00".
func HourLabels() []string {
	out := make([]string, HoursPerDay)
	copy(out, hourLabels[:])
	return out
}

// HourLabel returns the label for hour h (0-23).
func HourLabel(h int) string {
	return hourLabels[h]
}

// HourIndex returns the position of label in the canonical order.
func HourIndex(label string) (int, bool) {
	if len(label) != 5 || label[2] != ':' || label[3] != '0' || label[4] != '0' {
		return 0, false
	}
	d0, d1 := label[0], label[1]
	if d0 < '0' || d0 > '9' || d1 < '0' || d1 > '9' {
		return 0, false
	}
	h := int(d0-'0')*10 + int(d1-'0')
	if h >= HoursPerDay {
		return 0, false
	}
	return h, true
}

// HourRecord maps hour labels to the accumulated reading for one date.
type HourRecord map[string]float64

// UserRecord is a registered ledger owner.
type UserRecord struct {
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordDigest string    `json:"password_digest"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserDocument is the full persisted view of a user and both ledgers.
type UserDocument struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	PasswordDigest string                `json:"password_digest"`
	Consumption    map[string]HourRecord `json:"consumption"`
	Production     map[string]HourRecord `json:"production"`
}

// Reading is a single increment destined for one ledger cell.
type Reading struct {
	Kind  Kind
	Email string
	Date  string
	Hour  string
	Value float64
}

// Validate checks everything about the reading that does not need the store.
func (r Reading) Validate() error {
	if err := ValidateKind(r.Kind); err != nil {
		return err
	}
	if err := ValidateDate(r.Date); err != nil {
		return err
	}
	if _, ok := HourIndex(r.Hour); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidHour, r.Hour)
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidValue, r.Value)
	}
	return nil
}

// ValidateKind rejects anything but consumption or production.
func ValidateKind(k Kind) error {
	switch k {
	case KindConsumption, KindProduction:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, k)
	}
}

// ValidateDate requires a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}
