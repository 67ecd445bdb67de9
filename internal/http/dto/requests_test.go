package dto

import (
	"testing"
	"time"

	"github.com/audit-logger/backend/internal/models"
	"github.com/audit-logger/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParams_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain object", `{"action":"login","page":2}`},
		{"object envelope", `{"params":{"action":"login","page":"2"}}`},
		{"string envelope", `{"params":"{\"action\":\"login\",\"page\":2}"}`},
		{"padded", "  \n{\"action\":\"login\",\"page\":\"2\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req QueryLogsRequest
			require.NoError(t, DecodeParams([]byte(tt.body), &req))
			assert.Equal(t, LooseString("login"), req.Action)
			assert.Equal(t, LooseString("2"), req.Page)
		})
	}
}

func TestDecodeParams_EmptyKeepsExisting(t *testing.T) {
	req := QueryLogsRequest{Action: "from-query"}
	require.NoError(t, DecodeParams(nil, &req))
	require.NoError(t, DecodeParams([]byte(`{"params":""}`), &req))
	assert.Equal(t, LooseString("from-query"), req.Action)

	// body fields override, absent ones are kept
	require.NoError(t, DecodeParams([]byte(`{"page":3}`), &req))
	assert.Equal(t, LooseString("from-query"), req.Action)
	assert.Equal(t, LooseString("3"), req.Page)
}

func TestDecodeParams_Malformed(t *testing.T) {
	var req QueryLogsRequest
	assert.Error(t, DecodeParams([]byte(`{not json`), &req))
	assert.Error(t, DecodeParams([]byte(`{"params":"{broken"}`), &req))
	assert.Error(t, DecodeParams([]byte(`[1,2]`), &req))
}

func TestDecodeParams_CreateLog(t *testing.T) {
	body := `{"params":"{\"createdBy\":\"u1\",\"type\":\"user\",\"action\":\"update\",\"object\":\"o1\",\"newData\":{\"name\":\"x\",\"tags\":[1,2]}}"}`

	var req CreateLogRequest
	require.NoError(t, DecodeParams([]byte(body), &req))

	in := req.ToInput()
	assert.Equal(t, "u1", in.CreatedBy)
	assert.Equal(t, "user", in.Type)
	assert.Equal(t, "update", in.Action)
	assert.Equal(t, "o1", in.Object)
	assert.Equal(t, map[string]any{"name": "x", "tags": []any{float64(1), float64(2)}}, in.NewData)
}

func TestQueryLogsRequest_ToFilter(t *testing.T) {
	req := QueryLogsRequest{
		Start:   "2024-01-02T03:04:05Z",
		End:     "2024-02-01",
		UserID:  " user-1 ",
		Action:  "login",
		Page:    "abc",
		PerPage: "5",
	}

	f, err := req.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, "user-1", f.CreatedBy)
	assert.Equal(t, "login", f.Action)
	assert.Equal(t, models.DefaultPage, f.Page)
	assert.Equal(t, 5, f.PerPage)
	require.NotNil(t, f.Start)
	require.NotNil(t, f.End)
	assert.True(t, f.Start.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.True(t, f.End.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestQueryLogsRequest_ToFilterDefaults(t *testing.T) {
	f, err := QueryLogsRequest{}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, models.LogFilter{Page: 1, PerPage: 20}, f)
}

func TestParseTimeParam(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-02T03:04:05Z", want},
		{"2024-01-02T05:04:05+02:00", want},
		{"2024-01-02T03:04:05.250Z", want.Add(250 * time.Millisecond)},
		{"2024-01-02T03:04:05", want},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"1704164645000", want},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"86400000", time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimeParam("start", tt.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	got, err := parseTimeParam("start", "  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseTimeParam("start", "123")
	assert.Error(t, err, "short digit strings are neither a year nor milliseconds")

	_, err = parseTimeParam("end", "yesterday")
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end", verr.Field)
}

func TestLooseString(t *testing.T) {
	var req QueryLogsRequest
	require.NoError(t, DecodeParams([]byte(`{"page":2,"perPage":null,"start":1704164645000,"action":true}`), &req))
	assert.Equal(t, LooseString("2"), req.Page)
	assert.Equal(t, LooseString(""), req.PerPage)
	assert.Equal(t, LooseString("1704164645000"), req.Start)
	assert.Equal(t, LooseString("true"), req.Action)
}
