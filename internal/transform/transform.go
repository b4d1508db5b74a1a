// Package transform converts raw PSE report payloads into day snapshots.
// All functions here are pure: the same payload and spec always produce the
// same snapshot, and nothing outside the returned values is touched.
package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mzaleski/psesync/internal/entities"
	"github.com/mzaleski/psesync/internal/pse"
)

const planDtimeLayout = "2006-01-02 15:04:05"

// Spec parameterizes a transformation: which timezone defines the business
// day and which technical columns are coerced to integers.
type Spec struct {
	Location *time.Location
	IntCols  []string
}

// ParseError indicates the payload does not match the expected report format.
// Parse errors are never retried: the feed is reported failed and skipped.
type ParseError struct {
	Reason string
	Row    int // -1 when the error is not tied to a row
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("parse error at row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// envelope matches the {"value": [...]} wrapper returned by the PSE API.
type envelope struct {
	Value []json.RawMessage `json:"value"`
}

// DaySnapshot transforms one fetched payload into a snapshot for a single
// business day. The payload must be either a {"value": [...]} envelope or a
// bare JSON array of report rows.
func DaySnapshot(payload *pse.Payload, spec Spec) (*entities.DaySnapshot, error) {
	rows, err := decodeRows(payload.Body)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &ParseError{Reason: "payload contains no rows", Row: -1}
	}

	var dayStart time.Time
	hourly := make([]entities.HourlyRow, 0, len(rows))

	for i, raw := range rows {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, &ParseError{Reason: "row is not a JSON object", Row: i, Err: err}
		}

		hour, err := rowHour(row, i)
		if err != nil {
			return nil, err
		}

		// The day key comes from the first row carrying a business_date.
		if dayStart.IsZero() {
			bd, ok := row["business_date"].(string)
			if !ok || bd == "" {
				return nil, &ParseError{Reason: "missing business_date", Row: i}
			}
			dayStart, err = StartOfBusinessDay(bd, spec.Location)
			if err != nil {
				return nil, &ParseError{Reason: fmt.Sprintf("invalid business_date %q", bd), Row: i, Err: err}
			}
		}

		values, err := rowValues(row, i)
		if err != nil {
			return nil, err
		}
		coerceIntCols(values, spec.IntCols)

		hourly = append(hourly, entities.HourlyRow{
			Day:    dayStart.Add(time.Duration(hour) * time.Hour),
			Hour:   hour,
			Values: values,
		})
	}

	sort.SliceStable(hourly, func(i, j int) bool {
		return hourly[i].Hour < hourly[j].Hour
	})

	return &entities.DaySnapshot{
		DayStart:   dayStart,
		First:      hourly,
		Newest:     hourly,
		LastUpdate: payload.RetrievedAt,
	}, nil
}

// StartOfBusinessDay returns the UTC instant of local midnight for a
// YYYY-MM-DD business date. This instant is the snapshot's identifying key.
func StartOfBusinessDay(businessDate string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", businessDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.UTC(), nil
}

func decodeRows(body []byte) ([]json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Value != nil {
		return env.Value, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	return nil, &ParseError{Reason: "payload is neither a value envelope nor a JSON array", Row: -1}
}

func rowHour(row map[string]any, idx int) (int, error) {
	dt, ok := row["plan_dtime"].(string)
	if !ok || dt == "" {
		return 0, &ParseError{Reason: "missing plan_dtime", Row: idx}
	}
	t, err := time.Parse(planDtimeLayout, dt)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("invalid plan_dtime %q", dt), Row: idx, Err: err}
	}
	return t.Hour(), nil
}

// rowValues extracts every mapped technical column from an API row. Each
// mapped field must be present and be a JSON number or null; fields the
// mapping does not know are ignored, since the API grows new ones over time.
func rowValues(row map[string]any, idx int) (map[string]any, error) {
	values := make(map[string]any, len(fieldMapping))
	for apiField, techName := range fieldMapping {
		v, ok := row[apiField]
		if !ok {
			return nil, &ParseError{Reason: fmt.Sprintf("missing field %q", apiField), Row: idx}
		}
		switch v := v.(type) {
		case nil:
			values[techName] = nil
		case float64:
			values[techName] = v
		default:
			return nil, &ParseError{Reason: fmt.Sprintf("field %q is not numeric", apiField), Row: idx}
		}
	}
	return values, nil
}

// coerceIntCols rounds configured columns to int64, leaving nulls alone.
func coerceIntCols(values map[string]any, intCols []string) {
	for _, col := range intCols {
		v, ok := values[col]
		if !ok || v == nil {
			continue
		}
		if f, ok := v.(float64); ok {
			values[col] = int64(math.Round(f))
		}
	}
}
