package domain

// Clean converts a raw daily series into the canonical observation set.
// Steps, in this order: drop entries whose value is missing, then assign
// identifiers 1..n to the survivors in their original date order (the id
// reflects the post-filter position, not the raw index), then arrange fields
// into canonical shape. An empty survivor set is a NoDataError, never a
// valid zero-record set.
func Clean(raw []RawObservation) ([]ObservationRecord, error) {
	records := make([]ObservationRecord, 0, len(raw))
	for _, obs := range raw {
		if obs.Value == nil {
			continue
		}
		records = append(records, ObservationRecord{
			ID:       len(records) + 1,
			Lon:      obs.Lon,
			Lat:      obs.Lat,
			Date:     obs.Date,
			Rainfall: *obs.Value,
		})
	}
	if len(records) == 0 {
		return nil, &NoDataError{Reason: "all rows missing or filtered"}
	}
	return NewObservationSet(records)
}
