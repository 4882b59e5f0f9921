package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/turbot/basic-cleaning/constants"
	"github.com/turbot/basic-cleaning/error_types"
)

// LoadFile reads a dataset from a delimited file with a header row
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	return d, nil
}

// Load reads a dataset from r.
// The price and last_review columns must be present. A non-numeric price is an error,
// a blank price is treated as missing. An unparsable last_review is stored as nil.
func Load(r io.Reader) (*Dataset, error) {
	// every record must have as many fields as the header
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", error_types.ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", error_types.ErrMalformedInput, err)
	}
	// strip a leading byte order mark from the first column name
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	d := &Dataset{
		Columns:       header,
		Rows:          []*Row{},
		priceIdx:      indexOf(header, constants.ColumnPrice),
		lastReviewIdx: indexOf(header, constants.ColumnLastReview),
	}
	var missing []string
	if d.priceIdx == -1 {
		missing = append(missing, constants.ColumnPrice)
	}
	if d.lastReviewIdx == -1 {
		missing = append(missing, constants.ColumnLastReview)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", error_types.ErrMalformedInput, strings.Join(missing, ","))
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", error_types.ErrMalformedInput, err)
		}
		line, _ := reader.FieldPos(0)

		price, err := parsePrice(fields[d.priceIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid %s %q", error_types.ErrMalformedInput, line, constants.ColumnPrice, fields[d.priceIdx])
		}

		d.Rows = append(d.Rows, &Row{
			Fields:     fields,
			Line:       line,
			Price:      price,
			LastReview: ParseDate(fields[d.lastReviewIdx]),
		})
	}
	return d, nil
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if strings.TrimSpace(c) == name {
			return i
		}
	}
	return -1
}
