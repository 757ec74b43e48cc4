package ledger

// HourValue is one entry of a normalized series.
type HourValue struct {
	Hour  string  `json:"hour"`
	Value float64 `json:"value"`
}

// Series is a complete, hour-ordered day of values.
type Series []HourValue

// Record converts the series back to a label-keyed record.
func (s Series) Record() HourRecord {
	out := make(HourRecord, len(s))
	for _, hv := range s {
		out[hv.Hour] = hv.Value
	}
	return out
}

// Values returns the series values in hour order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, hv := range s {
		out[i] = hv.Value
	}
	return out
}

// Normalize fills record into exactly 24 entries ordered "00:00".."23:00".
// Labels missing from record take def. Labels outside the canonical set are
// ignored; write-time validation keeps them out of the store.
func Normalize(record HourRecord, def float64) Series {
	out := make(Series, HoursPerDay)
	for h, label := range hourLabels {
		v, ok := record[label]
		if !ok {
			v = def
		}
		out[h] = HourValue{Hour: label, Value: v}
	}
	return out
}

// Surplus returns production minus consumption for every hour of the day.
// Both sides are normalized with zero first, so an hour present on only one
// side still yields a value.
func Surplus(production, consumption HourRecord) HourRecord {
	prod := Normalize(production, 0)
	cons := Normalize(consumption, 0)

	out := make(HourRecord, HoursPerDay)
	for h := range prod {
		out[prod[h].Hour] = prod[h].Value - cons[h].Value
	}
	return out
}
