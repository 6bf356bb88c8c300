package customer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullRecord(t *testing.T) {
	raw := map[string]interface{}{
		"id":              "cus-123",
		"first_name":      "Maria",
		"last_name":       "Lopez",
		"phone":           "+593987654321",
		"email":           "maria@example.com",
		"city":            "Guayaquil",
		"campaign_id":     json.Number("42"),
		"agent":           json.Number("7"),
		"creation_date":   "2026-08-20T10:30:00Z",
		"whatsapp_opt_in": true,
		"tags":            []interface{}{"vip", "whatsapp"},
		"custom_fields":   map[string]interface{}{"source": "landing"},
	}

	rec := Normalize(raw)

	assert.Equal(t, "cus-123", rec.ID)
	assert.Equal(t, "Maria", rec.FirstName.String)
	assert.Equal(t, "maria@example.com", rec.Email.String)
	require.True(t, rec.CampaignID.Valid)
	assert.Equal(t, int64(42), rec.CampaignID.Int64)
	require.True(t, rec.Agent.Valid)
	assert.Equal(t, int64(7), rec.Agent.Int64)
	require.True(t, rec.CreationDate.Valid)
	assert.Equal(t, time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC), rec.CreationDate.Time)
	require.True(t, rec.WhatsappOptIn.Valid)
	assert.True(t, rec.WhatsappOptIn.Bool)
	require.True(t, rec.Tags.Valid)
	assert.JSONEq(t, `["vip","whatsapp"]`, rec.Tags.String)
	require.True(t, rec.CustomFields.Valid)
	assert.JSONEq(t, `{"source":"landing"}`, rec.CustomFields.String)
}

// Normalization must be total: arbitrarily malformed input degrades to null
// fields, never to a panic or error.
func TestNormalize_MalformedFieldsDegradeToNull(t *testing.T) {
	raw := map[string]interface{}{
		"id":              json.Number("98765432109876543"),
		"first_name":      nil,
		"campaign_id":     "not-a-number",
		"agent":           []interface{}{"weird"},
		"creation_date":   "not-a-date",
		"sent_at":         12345,
		"whatsapp_opt_in": "maybe",
		"tags":            []interface{}{},
		"custom_fields":   map[string]interface{}{},
	}

	var rec Record
	require.NotPanics(t, func() { rec = Normalize(raw) })

	assert.Equal(t, "98765432109876543", rec.ID)
	assert.False(t, rec.FirstName.Valid)
	assert.False(t, rec.CampaignID.Valid)
	assert.False(t, rec.Agent.Valid)
	assert.False(t, rec.CreationDate.Valid)
	assert.False(t, rec.SentAt.Valid)
	assert.False(t, rec.WhatsappOptIn.Valid, "unparsable opt-in is unknown, not false")
	assert.False(t, rec.Tags.Valid, "empty tags store as null, not \"[]\"")
	assert.False(t, rec.CustomFields.Valid)
}

func TestNormalize_EmptyRecord(t *testing.T) {
	rec := Normalize(map[string]interface{}{})

	assert.Equal(t, "", rec.ID)
	assert.False(t, rec.Email.Valid)
	assert.False(t, rec.CreationDate.Valid)
	assert.False(t, rec.WhatsappOptIn.Valid)
}

func TestCoerceInt(t *testing.T) {
	cases := []struct {
		name  string
		in    interface{}
		want  int64
		valid bool
	}{
		{"json number", json.Number("42"), 42, true},
		{"integral float", 42.0, 42, true},
		{"string digits", " 42 ", 42, true},
		{"fractional float", 42.5, 0, false},
		{"garbage string", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := coerceInt(tc.in)
			assert.Equal(t, tc.valid, got.Valid)
			if tc.valid {
				assert.Equal(t, tc.want, got.Int64)
			}
		})
	}
}

func TestCoerceTime_Layouts(t *testing.T) {
	for _, s := range []string{
		"2026-08-20T10:30:00Z",
		"2026-08-20T10:30:00.123Z",
		"2026-08-20 10:30:00",
		"2026-08-20 10:30:00 +0000",
		"2026-08-20",
	} {
		got := coerceTime(s)
		assert.True(t, got.Valid, "layout %q should parse", s)
	}

	assert.False(t, coerceTime("").Valid)
	assert.False(t, coerceTime("20/08/2026").Valid)
	assert.False(t, coerceTime(nil).Valid)
}

func TestCoerceBool_TriState(t *testing.T) {
	cases := []struct {
		in    interface{}
		want  bool
		valid bool
	}{
		{true, true, true},
		{false, false, true},
		{"true", true, true},
		{"0", false, true},
		{json.Number("1"), true, true},
		{json.Number("0"), false, true},
		{"yes please", false, false},
		{nil, false, false},
		{json.Number("2"), false, false},
	}
	for _, tc := range cases {
		got := coerceBool(tc.in)
		assert.Equal(t, tc.valid, got.Valid, "input %v", tc.in)
		if tc.valid {
			assert.Equal(t, tc.want, got.Bool, "input %v", tc.in)
		}
	}
}
