package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Posts a sample gateway callback against a running server so the whole
// webhook path can be exercised end to end. Pass a real transaction id
// from a pending charge to see it apply.
func main() {
	txid := flag.String("txid", "", "transaction id of a pending charge")
	amount := flag.Int64("amount", 10_00, "amount in centavos")
	status := flag.String("status", "PAID", "gateway status to report")
	flat := flag.Bool("flat", false, "use the flat payload shape instead of the nested one")
	flag.Parse()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	url := fmt.Sprintf("http://127.0.0.1:%s/payment-webhook", port)

	var payload map[string]any
	if *flat {
		payload = map[string]any{
			"transaction_id": *txid,
			"status":         *status,
			"amount":         float64(*amount) / 100,
			"paid_at":        time.Now().UTC().Format(time.RFC3339),
		}
	} else {
		payload = map[string]any{
			"event_type": "TRANSACTION_UPDATE",
			"data": map[string]any{
				"external_id": *txid,
				"status":      *status,
				"amount":      float64(*amount) / 100,
				"paid_at":     time.Now().UTC().Format(time.RFC3339),
			},
		}
	}

	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	log.Printf("status=%d body=%s", resp.StatusCode, out)
}
