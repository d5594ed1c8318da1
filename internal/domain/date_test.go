package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.March, 10)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-10"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-10"`), &parsed))
	assert.True(t, parsed.Equal(d))

	var zero Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &zero))
	assert.True(t, zero.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"10/03/2025"`), &parsed))
}

func TestDateComparisons(t *testing.T) {
	d := NewDate(2025, time.March, 10)

	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
	assert.True(t, d.Equal(NewDate(2025, time.March, 10)))
	assert.Equal(t, "2025-03-17", d.AddDays(7).String())
}

func TestDateOfTruncates(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 EST on March 9 is already March 10 in UTC
	instant := time.Date(2025, time.March, 9, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-10", DateOf(instant).String())
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-03-10", d.String())

	require.NoError(t, d.Scan([]byte("2025-04-01")))
	assert.Equal(t, "2025-04-01", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}
