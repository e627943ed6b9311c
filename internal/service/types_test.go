package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "rfc3339 with offset", in: `"2024-03-01T10:00:00.000+00:00"`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "offset without colon", in: `"2024-03-01T10:00:00.000+0000"`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "epoch millis", in: `1709287200000`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "local date-time array", in: `[2024,3,1,10,0,0]`, want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{name: "array with nanos", in: `[2024,3,1,10,0,0,500]`, want: time.Date(2024, 3, 1, 10, 0, 0, 500, time.UTC)},
		{name: "date-only array", in: `[2024,3,1]`, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "null", in: `null`},
		{name: "empty string", in: `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "want %v, got %v", tt.want, ts.Time)
		})
	}
}

func TestTimestamp_UnmarshalInvalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`[2024,3]`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`[2024,13,1]`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`["2024"]`), &ts))
}

func TestTask_DecodesBackendPayload(t *testing.T) {
	payload := `{"id":"t1","title":"Standup","description":"daily","status":"Pending",
		"userId":"u1","createdAt":"2024-03-01T10:00:00Z","googleEventId":"ev1"}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(payload), &task))
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "Pending", task.Status)
	assert.Equal(t, "ev1", task.GoogleEventID)
	assert.Equal(t, 2024, task.CreatedAt.Year())
}
