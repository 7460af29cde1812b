package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar layouts accepted for invoice dates, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Spreadsheet serial day 0. Using Dec 30 1899 (rather than Dec 31 1899)
// reproduces the 1900-epoch convention together with its traditional
// off-by-one leap-year quirk (the phantom Feb 29 1900).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseInvoiceDate parses a calendar date or a 1900-epoch spreadsheet serial.
func ParseInvoiceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("invoice date is empty")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	// Spreadsheet serial dates arrive as bare numbers, sometimes fractional
	// when the cell carried a time component.
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial <= 0 || serial > 200000 {
			return time.Time{}, fmt.Errorf("spreadsheet serial date %q out of range", value)
		}
		return serialEpoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized invoice date %q", value)
}
