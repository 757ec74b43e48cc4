package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHourIndex(t *testing.T) {
	cases := []struct {
		label string
		want  int
		ok    bool
	}{
		{"00:00", 0, true},
		{"09:00", 9, true},
		{"23:00", 23, true},
		{"24:00", 0, false},
		{"9:00", 0, false},
		{"09:30", 0, false},
		{"ab:00", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := HourIndex(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.label)
		}
	}
}

func TestNormalizeFillsAndOrders(t *testing.T) {
	s := Normalize(HourRecord{"23:00": 7, "02:00": 1.5, "bogus": 99}, -1)

	assert.Len(t, s, HoursPerDay)
	assert.Equal(t, HourLabels(), func() []string {
		out := make([]string, len(s))
		for i, hv := range s {
			out[i] = hv.Hour
		}
		return out
	}())
	assert.Equal(t, 1.5, s[2].Value)
	assert.Equal(t, 7.0, s[23].Value)
	assert.Equal(t, -1.0, s[0].Value)
	assert.NotContains(t, s.Record(), "bogus")
}

func TestNormalizeEmpty(t *testing.T) {
	for _, v := range Normalize(nil, 0).Values() {
		assert.Zero(t, v)
	}
}

func TestSurplus(t *testing.T) {
	prod := HourRecord{"10:00": 5, "11:00": 2}
	cons := HourRecord{"10:00": 3, "20:00": 1}

	got := Surplus(prod, cons)

	assert.Len(t, got, HoursPerDay)
	assert.Equal(t, 2.0, got["10:00"])
	assert.Equal(t, 2.0, got["11:00"])
	assert.Equal(t, -1.0, got["20:00"])
	assert.Equal(t, 0.0, got["00:00"])
}

func TestReadingValidate(t *testing.T) {
	base := Reading{Kind: KindProduction, Email: "a@example.com", Date: "2024-05-01", Hour: "05:00", Value: 1}
	assert.NoError(t, base.Validate())

	r := base
	r.Kind = "heat"
	assert.ErrorIs(t, r.Validate(), ErrInvalidKind)

	r = base
	r.Date = "2024-13-01"
	assert.ErrorIs(t, r.Validate(), ErrInvalidDate)

	r = base
	r.Hour = "5:00"
	assert.ErrorIs(t, r.Validate(), ErrInvalidHour)

	r = base
	r.Value = -0.1
	assert.ErrorIs(t, r.Validate(), ErrInvalidValue)
}
