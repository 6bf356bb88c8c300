// Command stub-api serves a hardcoded Mercately customers endpoint for local
// end-to-end testing of the sync job. All responses are deterministic
// placeholders; never point production config at it.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	totalCustomers = 25
	pageSize       = 10
	stubAPIKey     = "stub-api-key"
)

func main() {
	log.Println("WARNING: stub Mercately API — all responses are hardcoded placeholders")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8089"
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"mercately-stub-api"}`))
	})

	r.Get("/retailers/api/v1/customers", handleCustomers)

	log.Printf("Stub API listening on :%s (api-key: %s)", port, stubAPIKey)
	log.Printf("Try: MERCATELY_BASE_URL=http://localhost:%s/retailers/api/v1 MERCATELY_API_KEY=%s", port, stubAPIKey)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func handleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("api-key") != stubAPIKey {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > totalCustomers {
		end = totalCustomers
	}

	customers := []map[string]interface{}{}
	for i := start; i < end; i++ {
		customers = append(customers, stubCustomer(i))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"customers": customers})
}

// stubCustomer fabricates a deterministic customer, mixing in the field
// quirks the real API exhibits (string campaign ids, missing fields, odd
// types) so normalization gets exercised end to end.
func stubCustomer(i int) map[string]interface{} {
	created := time.Now().UTC().AddDate(0, 0, -(i % 7)).Format(time.RFC3339)

	c := map[string]interface{}{
		"id":            fmt.Sprintf("stub-%04d", i),
		"first_name":    fmt.Sprintf("Cliente%d", i),
		"last_name":     "DePrueba",
		"phone":         fmt.Sprintf("+5939%08d", i),
		"email":         fmt.Sprintf("cliente%d@example.com", i),
		"creation_date": created,
	}

	switch i % 4 {
	case 0:
		c["city"] = "Quito"
		c["campaign_id"] = i * 100
		c["whatsapp_opt_in"] = true
		c["tags"] = []string{"vip", "whatsapp"}
	case 1:
		c["campaign_id"] = strconv.Itoa(i * 100) // string-typed, like the real API sometimes
		c["whatsapp_opt_in"] = "false"
		c["custom_fields"] = map[string]interface{}{"source": "stub"}
	case 2:
		c["agent"] = 7
		c["whatsapp_opt_in"] = "maybe" // unparsable, normalizes to unknown
	case 3:
		c["last_chat_interaction"] = "not-a-date" // unparsable, normalizes to null
	}

	return c
}
