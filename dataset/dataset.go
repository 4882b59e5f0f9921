package dataset

import (
	"math"
	"time"
)

// Dataset is a delimited tabular dataset with a header row.
// All fields are held as their raw strings so a round trip leaves untouched columns byte-identical;
// the price and last_review columns are additionally held in typed form.
type Dataset struct {
	Columns []string
	Rows    []*Row

	priceIdx      int
	lastReviewIdx int
}

// Row is a single record of a Dataset
type Row struct {
	// Fields holds the raw value of every column, in header order
	Fields []string
	// Line is the line number of the row in the source file (1-based, header is line 1)
	Line int

	// Price is NaN if the price field was blank
	Price float64
	// LastReview is nil if the last_review field was blank or could not be parsed
	LastReview *time.Time
}

func (r *Row) HasPrice() bool {
	return !math.IsNaN(r.Price)
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Column returns the raw value of the named column for row i
func (d *Dataset) Column(i int, name string) (string, bool) {
	for idx, c := range d.Columns {
		if c == name {
			return d.Rows[i].Fields[idx], true
		}
	}
	return "", false
}

// withRows returns a dataset sharing the header of d, containing the given rows
func (d *Dataset) withRows(rows []*Row) *Dataset {
	return &Dataset{
		Columns:       d.Columns,
		Rows:          rows,
		priceIdx:      d.priceIdx,
		lastReviewIdx: d.lastReviewIdx,
	}
}

// PriceRange returns the minimum and maximum price in the dataset, ignoring rows with no price.
// ok is false if no row has a price
func (d *Dataset) PriceRange() (minPrice, maxPrice float64, ok bool) {
	for _, r := range d.Rows {
		if !r.HasPrice() {
			continue
		}
		if !ok {
			minPrice, maxPrice, ok = r.Price, r.Price, true
			continue
		}
		minPrice = math.Min(minPrice, r.Price)
		maxPrice = math.Max(maxPrice, r.Price)
	}
	return minPrice, maxPrice, ok
}
