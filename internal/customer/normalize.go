package customer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing API timestamps. The
// customers endpoint mixes RFC3339, space-separated, and date-only values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize converts a raw API record into a canonical Record. It is total:
// malformed or missing fields degrade to null, never to an error. The id is
// the only field that must survive — records without one get ID == "" and the
// caller decides whether to drop them.
func Normalize(raw map[string]interface{}) Record {
	return Record{
		ID:                  coerceID(raw["id"]),
		FirstName:           coerceString(raw["first_name"]),
		LastName:            coerceString(raw["last_name"]),
		Phone:               coerceString(raw["phone"]),
		Email:               coerceString(raw["email"]),
		City:                coerceString(raw["city"]),
		CampaignID:          coerceInt(raw["campaign_id"]),
		Agent:               coerceInt(raw["agent"]),
		CreationDate:        coerceTime(raw["creation_date"]),
		SentAt:              coerceTime(raw["sent_at"]),
		DeliveredAt:         coerceTime(raw["delivered_at"]),
		ReadAt:              coerceTime(raw["read_at"]),
		LastChatInteraction: coerceTime(raw["last_chat_interaction"]),
		Tags:                coerceJSON(raw["tags"]),
		CustomFields:        coerceJSON(raw["custom_fields"]),
		CustomerAddresses:   coerceJSON(raw["customer_addresses"]),
		WhatsappOptIn:       coerceBool(raw["whatsapp_opt_in"]),
	}
}

func coerceID(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}

func coerceString(v interface{}) sql.NullString {
	switch t := v.(type) {
	case nil:
		return sql.NullString{}
	case string:
		return sql.NullString{String: t, Valid: true}
	case json.Number:
		return sql.NullString{String: t.String(), Valid: true}
	case bool:
		return sql.NullString{String: strconv.FormatBool(t), Valid: true}
	case float64:
		return sql.NullString{String: strconv.FormatFloat(t, 'f', -1, 64), Valid: true}
	}
	// Composite values don't belong in free-text columns.
	return sql.NullString{}
}

func coerceInt(v interface{}) sql.NullInt64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return sql.NullInt64{Int64: n, Valid: true}
		}
		// Integral floats like 42.0 still count.
		if f, err := t.Float64(); err == nil && f == float64(int64(f)) {
			return sql.NullInt64{Int64: int64(f), Valid: true}
		}
	case float64:
		if t == float64(int64(t)) {
			return sql.NullInt64{Int64: int64(t), Valid: true}
		}
	case int:
		return sql.NullInt64{Int64: int64(t), Valid: true}
	case int64:
		return sql.NullInt64{Int64: t, Valid: true}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return sql.NullInt64{Int64: n, Valid: true}
		}
	}
	return sql.NullInt64{}
}

func coerceTime(v interface{}) sql.NullTime {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return sql.NullTime{}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: ts, Valid: true}
		}
	}
	return sql.NullTime{}
}

// coerceJSON serializes structured fields (tags, custom_fields,
// customer_addresses) to canonical JSON text. Absent or empty values store
// as null rather than "[]"/"{}"/"".
func coerceJSON(v interface{}) sql.NullString {
	if !truthy(v) {
		return sql.NullString{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		// json.Number or cycles can't occur in decoded API data, but stay total.
		return sql.NullString{String: fmt.Sprintf("%v", v), Valid: true}
	}
	return sql.NullString{String: string(data), Valid: true}
}

func coerceBool(v interface{}) sql.NullBool {
	switch t := v.(type) {
	case bool:
		return sql.NullBool{Bool: t, Valid: true}
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return sql.NullBool{Bool: b, Valid: true}
		}
	case json.Number:
		switch t.String() {
		case "0":
			return sql.NullBool{Bool: false, Valid: true}
		case "1":
			return sql.NullBool{Bool: true, Valid: true}
		}
	case float64:
		if t == 0 {
			return sql.NullBool{Bool: false, Valid: true}
		}
		if t == 1 {
			return sql.NullBool{Bool: true, Valid: true}
		}
	}
	return sql.NullBool{}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	case bool:
		return t
	}
	return true
}
