package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"attendance-bot/internal/model"
)

// Columns is the header of the tabular ledger formats.
var Columns = []string{
	"Employee Name",
	"Check-In Date",
	"Check-In Time",
	"Check-Out Date",
	"Check-Out Time",
	"Total Break Time (hh:mm:ss)",
	"Total Time Worked (hh:mm:ss)",
	"Total Break-Ins",
}

func encodeRow(r model.SessionRecord) []string {
	return []string{
		r.EmployeeName,
		r.CheckInDate,
		r.CheckInTime,
		deref(r.CheckOutDate),
		deref(r.CheckOutTime),
		r.TotalBreakDuration,
		deref(r.TotalWorkedDuration),
		strconv.Itoa(r.TotalBreakIns),
	}
}

func decodeRow(cells []string) (model.SessionRecord, error) {
	// Spreadsheet readers drop trailing empty cells.
	for len(cells) < len(Columns) {
		cells = append(cells, "")
	}
	if len(cells) > len(Columns) {
		return model.SessionRecord{}, fmt.Errorf("expected %d columns, got %d", len(Columns), len(cells))
	}

	breakIns, err := parseCount(cells[7])
	if err != nil {
		return model.SessionRecord{}, fmt.Errorf("invalid break-in count %q: %w", cells[7], err)
	}

	breakTotal := strings.TrimSpace(cells[5])
	if breakTotal == "" {
		breakTotal = "00:00:00"
	}

	return model.SessionRecord{
		EmployeeName:        cells[0],
		CheckInDate:         strings.TrimSpace(cells[1]),
		CheckInTime:         strings.TrimSpace(cells[2]),
		CheckOutDate:        optional(cells[3]),
		CheckOutTime:        optional(cells[4]),
		TotalBreakDuration:  breakTotal,
		TotalWorkedDuration: optional(cells[6]),
		TotalBreakIns:       breakIns,
	}, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("unexpected ledger header %q", header)
	}
	for i, name := range Columns {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != name {
			return fmt.Errorf("unexpected ledger column %d: %q, want %q", i+1, header[i], name)
		}
	}
	return nil
}

// parseCount accepts "2" as well as the float rendering "2.0" of older ledgers.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a non-negative whole number")
	}
	return int(f), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
