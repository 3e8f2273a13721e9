package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/CivicBridge/CB-Districting/internal/batch"
)

// Handler receives change-batch events from the document store's trigger
// pipeline and runs them through the processor.
type Handler struct {
	Processor *batch.Processor
}

// RecordsChanged handles the signed change-batch webhook. The event body
// carries before/after snapshots per record; the processor decides what
// actually changed. The response reports the batch summary — individual
// record failures are logged server-side, not surfaced to the trigger.
func (h *Handler) RecordsChanged(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20) // 4 MiB
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}
	defer r.Body.Close()

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	if !verifySignature(r.Header.Get("X-Signature"), raw, secret) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event batch.ChangeEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	summary := h.Processor.Process(r.Context(), event)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(summary)
}

func verifySignature(sig string, raw []byte, secret string) bool {
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}
