package dataset

// FilterPrice returns a dataset containing the rows of d whose price lies in [minPrice, maxPrice],
// in their original order. Rows with no price are dropped.
func FilterPrice(d *Dataset, minPrice, maxPrice float64) *Dataset {
	rows := make([]*Row, 0, len(d.Rows))
	for _, r := range d.Rows {
		// a NaN price fails both comparisons
		if r.Price >= minPrice && r.Price <= maxPrice {
			rows = append(rows, r)
		}
	}
	return d.withRows(rows)
}

// NormalizeLastReview re-encodes the last_review field of every row from its parsed value.
// Rows whose value could not be parsed get an empty (null) field.
// If any value has a time of day, all values are written with one. Fractional seconds are kept
// and values are written in their own zone's wall clock.
func NormalizeLastReview(d *Dataset) *Dataset {
	layout := DateLayout
	for _, r := range d.Rows {
		if r.LastReview != nil && !isMidnight(*r.LastReview) {
			layout = DateTimeLayout
			break
		}
	}

	rows := make([]*Row, len(d.Rows))
	for i, r := range d.Rows {
		fields := make([]string, len(r.Fields))
		copy(fields, r.Fields)
		if r.LastReview != nil {
			fields[d.lastReviewIdx] = r.LastReview.Format(layout)
		} else {
			fields[d.lastReviewIdx] = ""
		}
		rows[i] = &Row{
			Fields:     fields,
			Line:       r.Line,
			Price:      r.Price,
			LastReview: r.LastReview,
		}
	}
	return d.withRows(rows)
}
