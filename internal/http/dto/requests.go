package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/audit-logger/backend/internal/models"
	"github.com/audit-logger/backend/internal/services"
)

type CreateLogRequest struct {
	CreatedBy   string `json:"createdBy"`
	Type        string `json:"type"`
	Action      string `json:"action"`
	Unicode     string `json:"unicode"`
	Description string `json:"description"`
	Object      string `json:"object"`
	NewData     any    `json:"newData"`
}

func (r CreateLogRequest) ToInput() services.LogInput {
	return services.LogInput{
		CreatedBy:   r.CreatedBy,
		Type:        r.Type,
		Action:      r.Action,
		Unicode:     r.Unicode,
		Description: r.Description,
		Object:      r.Object,
		NewData:     r.NewData,
	}
}

// QueryLogsRequest mirrors the query string and JSON params. UserID is the
// actor filter (createdBy).
type QueryLogsRequest struct {
	Start   LooseString `json:"start"`
	End     LooseString `json:"end"`
	UserID  LooseString `json:"userId"`
	Action  LooseString `json:"action"`
	Page    LooseString `json:"page"`
	PerPage LooseString `json:"perPage"`
}

func (r QueryLogsRequest) ToFilter() (models.LogFilter, error) {
	f := models.LogFilter{
		CreatedBy: strings.TrimSpace(string(r.UserID)),
		Action:    strings.TrimSpace(string(r.Action)),
		Page:      models.ParsePage(string(r.Page)),
		PerPage:   models.ParsePerPage(string(r.PerPage)),
	}

	var err error
	if f.Start, err = parseTimeParam("start", string(r.Start)); err != nil {
		return f, err
	}
	if f.End, err = parseTimeParam("end", string(r.End)); err != nil {
		return f, err
	}
	return f, nil
}

// LooseString accepts a JSON string, number or bool and keeps its text, so
// {"page": 2} and {"page": "2"} decode the same way.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	// numbers, bools and anything else non-string keep their literal text
	*s = LooseString(data)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseTimeParam accepts RFC 3339, a bare date or datetime (UTC), a year or
// year-month, or Unix milliseconds (more than four digits). Empty input means
// no bound.
func parseTimeParam(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if len(s) > 4 {
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t := time.UnixMilli(ms).UTC()
			return &t, nil
		}
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, &services.ValidationError{Field: field, Message: "invalid date " + strconv.Quote(s)}
}

// DecodeParams decodes body into dst. The body may be a plain JSON object or
// an envelope {"params": ...} whose value is either an object or a string
// holding JSON. An empty body leaves dst untouched.
func DecodeParams(body []byte, dst any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	var envelope struct {
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}

	raw := bytes.TrimSpace(envelope.Params)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.Unmarshal(body, dst)
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			return nil
		}
		raw = []byte(inner)
	}
	return json.Unmarshal(raw, dst)
}
