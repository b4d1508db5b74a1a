package transform

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaleski/psesync/internal/pse"
)

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return loc
}

// testRow builds one API row with every mapped field set to value.
func testRow(businessDate string, hour int, value any) map[string]any {
	row := map[string]any{
		"business_date": businessDate,
		"plan_dtime":    fmt.Sprintf("%s %02d:00:00", businessDate, hour),
	}
	for _, f := range APIFields() {
		row[f] = value
	}
	return row
}

func payloadFor(t *testing.T, rows ...map[string]any) *pse.Payload {
	t.Helper()
	body, err := json.Marshal(map[string]any{"value": rows})
	require.NoError(t, err)
	return &pse.Payload{
		Body:        body,
		URL:         "https://api.example.com/pk5l-wp",
		RetrievedAt: time.Date(2026, 1, 14, 18, 0, 0, 0, time.UTC),
	}
}

func TestDaySnapshot(t *testing.T) {
	spec := Spec{Location: warsaw(t)}

	payload := payloadFor(t,
		testRow("2026-01-15", 0, 100.0),
		testRow("2026-01-15", 1, 200.0),
	)

	snap, err := DaySnapshot(payload, spec)
	require.NoError(t, err)

	// Warsaw midnight in January is 23:00 UTC the previous day.
	wantDayStart := time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)
	assert.True(t, snap.DayStart.Equal(wantDayStart), "got day start %v", snap.DayStart)

	require.Len(t, snap.Newest, 2)
	assert.Equal(t, 0, snap.Newest[0].Hour)
	assert.Equal(t, 1, snap.Newest[1].Hour)
	assert.True(t, snap.Newest[0].Day.Equal(wantDayStart))
	assert.True(t, snap.Newest[1].Day.Equal(wantDayStart.Add(time.Hour)))

	name, ok := TechnicalName("grid_demand_fcst")
	require.True(t, ok)
	assert.Equal(t, 100.0, snap.Newest[0].Values[name])

	assert.Equal(t, snap.First, snap.Newest)
	assert.Equal(t, payload.RetrievedAt, snap.LastUpdate)
}

func TestDaySnapshotSummerDayStart(t *testing.T) {
	spec := Spec{Location: warsaw(t)}

	snap, err := DaySnapshot(payloadFor(t, testRow("2026-06-15", 12, 1.0)), spec)
	require.NoError(t, err)

	// Warsaw midnight in June is 22:00 UTC the previous day.
	assert.True(t, snap.DayStart.Equal(time.Date(2026, 6, 14, 22, 0, 0, 0, time.UTC)))
}

func TestDaySnapshotIsPure(t *testing.T) {
	spec := Spec{Location: warsaw(t), IntCols: []string{"Wymagana_rezerwa_mocy_OSP"}}
	payload := payloadFor(t, testRow("2026-01-15", 3, 42.4), testRow("2026-01-15", 4, 42.4))

	first, err := DaySnapshot(payload, spec)
	require.NoError(t, err)
	second, err := DaySnapshot(payload, spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDaySnapshotIntCoercion(t *testing.T) {
	intCol := "Prognozowane_zapotrzebowanie_sieci"
	spec := Spec{Location: warsaw(t), IntCols: []string{intCol}}

	row := testRow("2026-01-15", 0, 100.6)
	snap, err := DaySnapshot(payloadFor(t, row), spec)
	require.NoError(t, err)

	assert.Equal(t, int64(101), snap.Newest[0].Values[intCol])

	// Other columns keep their float values
	name, _ := TechnicalName("fcst_pv_tot_gen")
	assert.Equal(t, 100.6, snap.Newest[0].Values[name])
}

func TestDaySnapshotNullValues(t *testing.T) {
	intCol := "Prognozowane_zapotrzebowanie_sieci"
	spec := Spec{Location: warsaw(t), IntCols: []string{intCol}}

	snap, err := DaySnapshot(payloadFor(t, testRow("2026-01-15", 0, nil)), spec)
	require.NoError(t, err)

	assert.Nil(t, snap.Newest[0].Values[intCol])
}

func TestDaySnapshotSortsRowsByHour(t *testing.T) {
	spec := Spec{Location: warsaw(t)}

	snap, err := DaySnapshot(payloadFor(t,
		testRow("2026-01-15", 5, 1.0),
		testRow("2026-01-15", 2, 1.0),
		testRow("2026-01-15", 9, 1.0),
	), spec)
	require.NoError(t, err)

	require.Len(t, snap.Newest, 3)
	assert.Equal(t, []int{2, 5, 9}, []int{snap.Newest[0].Hour, snap.Newest[1].Hour, snap.Newest[2].Hour})
}

func TestDaySnapshotAcceptsBareArray(t *testing.T) {
	spec := Spec{Location: warsaw(t)}

	body, err := json.Marshal([]map[string]any{testRow("2026-01-15", 0, 1.0)})
	require.NoError(t, err)

	snap, err := DaySnapshot(&pse.Payload{Body: body, RetrievedAt: time.Now().UTC()}, spec)
	require.NoError(t, err)
	assert.Len(t, snap.Newest, 1)
}

func TestDaySnapshotParseErrors(t *testing.T) {
	spec := Spec{Location: warsaw(t)}

	missingField := testRow("2026-01-15", 0, 1.0)
	delete(missingField, "grid_demand_fcst")

	badType := testRow("2026-01-15", 0, 1.0)
	badType["req_pow_res"] = "n/a"

	noDtime := testRow("2026-01-15", 0, 1.0)
	delete(noDtime, "plan_dtime")

	badDate := testRow("not-a-date", 0, 1.0)
	badDate["plan_dtime"] = "2026-01-15 00:00:00"

	tests := []struct {
		name string
		body []byte
	}{
		{name: "not json", body: []byte("<html>gateway error</html>")},
		{name: "wrong shape", body: []byte(`{"results": 7}`)},
		{name: "empty value array", body: []byte(`{"value": []}`)},
		{name: "missing mapped field", body: mustMarshal(t, missingField)},
		{name: "non-numeric field", body: mustMarshal(t, badType)},
		{name: "missing plan_dtime", body: mustMarshal(t, noDtime)},
		{name: "invalid business_date", body: mustMarshal(t, badDate)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := &pse.Payload{Body: tt.body, RetrievedAt: time.Now().UTC()}

			_, err := DaySnapshot(payload, spec)
			require.Error(t, err)

			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func mustMarshal(t *testing.T, rows ...map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"value": rows})
	require.NoError(t, err)
	return body
}

func TestStartOfBusinessDay(t *testing.T) {
	loc := warsaw(t)

	winter, err := StartOfBusinessDay("2026-01-15", loc)
	require.NoError(t, err)
	assert.True(t, winter.Equal(time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)))

	summer, err := StartOfBusinessDay("2026-06-15", loc)
	require.NoError(t, err)
	assert.True(t, summer.Equal(time.Date(2026, 6, 14, 22, 0, 0, 0, time.UTC)))

	_, err = StartOfBusinessDay("15.01.2026", loc)
	assert.Error(t, err)
}
