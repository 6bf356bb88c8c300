package mercately

import "encoding/json"

// RawCustomer is a customer record exactly as the API returned it. The
// customers endpoint is loosely typed — field types drift between accounts —
// so values stay untyped until normalization.
type RawCustomer map[string]interface{}

// ID returns the customer's external identifier as a string, or "" when the
// record has none. The API has returned both string and numeric ids.
func (r RawCustomer) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		n, _ := json.Marshal(v)
		return string(n)
	}
	return ""
}

// customersPage mirrors the wire shape of the customers endpoint.
type customersPage struct {
	Customers []RawCustomer `json:"customers"`
}
