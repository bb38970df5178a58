package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/services"
	"github.com/localnerve/recipe-board/internal/testutil"
)

func (e *testEnv) deliver(id string, payload []byte, signedAt time.Time, tamper bool) int {
	e.t.Helper()
	verifier, err := services.NewWebhookVerifier(testWebhookSecret)
	if err != nil {
		e.t.Fatalf("Failed to create verifier: %v", err)
	}
	ts, sig, err := verifier.Sign(id, signedAt, payload)
	if err != nil {
		e.t.Fatalf("Failed to sign delivery: %v", err)
	}
	body := payload
	if tamper {
		body = append([]byte(nil), payload...)
		body = append(body, ' ')
	}
	req := httptest.NewRequest("POST", "/api/webhooks/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", id)
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", sig)
	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("Failed to execute request: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode
}

const createdEvent = `{"type":"user.created","data":{"id":"user_9","primary_email_address_id":"e1",
	"email_addresses":[{"id":"e1","email_address":"nine@example.com"}],"first_name":"Nine"}}`

func TestUserWebhook(t *testing.T) {
	env := setupTestApp(t, nil)

	if status := env.deliver("msg_1", []byte(createdEvent), time.Now(), true); status != http.StatusUnauthorized {
		t.Fatalf("Expected a tampered body to be rejected, got %d", status)
	}
	if status := env.deliver("msg_1", []byte(createdEvent), time.Now().Add(-time.Hour), false); status != http.StatusUnauthorized {
		t.Fatalf("Expected a stale delivery to be rejected, got %d", status)
	}
	if status := env.deliver("msg_1", []byte(createdEvent), time.Now(), false); status != http.StatusOK {
		t.Fatalf("Expected the delivery to be applied, got %d", status)
	}
	var user models.User
	if err := env.db.First(&user, "id = ?", "user_9").Error; err != nil {
		t.Fatalf("Expected user_9 to exist: %v", err)
	}
	if user.Email != "nine@example.com" {
		t.Errorf("Unexpected user %+v", user)
	}

	testutil.SeedBoard(t, env.db, "user_9", "Nine's", testutil.ColumnSpec{Title: "Todo", Cards: []string{"A"}})
	deleted := []byte(`{"type":"user.deleted","data":{"id":"user_9","deleted":true}}`)
	if status := env.deliver("msg_2", deleted, time.Now(), false); status != http.StatusOK {
		t.Fatalf("Expected the delete to be applied, got %d", status)
	}
	var boards int64
	env.db.Model(&models.Board{}).Where("owner_id = ?", "user_9").Count(&boards)
	if boards != 0 {
		t.Errorf("Expected user_9's boards to be deleted, %d left", boards)
	}

	if status := env.deliver("msg_3", []byte(`{"type":`), time.Now(), false); status != http.StatusBadRequest {
		t.Errorf("Expected malformed JSON to be a 400, got %d", status)
	}
}

func TestUserWebhookDeduplicatesDeliveries(t *testing.T) {
	mr := miniredis.RunT(t)
	ledger, err := services.NewRedisLedger("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	env := setupTestApp(t, ledger)

	if status := env.deliver("msg_1", []byte(createdEvent), time.Now(), false); status != http.StatusOK {
		t.Fatalf("Expected the delivery to be applied, got %d", status)
	}
	env.db.Model(&models.User{}).Where("id = ?", "user_9").Update("email", "changed@example.com")

	if status := env.deliver("msg_1", []byte(createdEvent), time.Now(), false); status != http.StatusOK {
		t.Fatalf("Expected a redelivery to succeed, got %d", status)
	}
	var user models.User
	env.db.First(&user, "id = ?", "user_9")
	if user.Email != "changed@example.com" {
		t.Errorf("Expected the redelivery to be skipped, email is %s", user.Email)
	}

	status, body := env.do("GET", "/health", "", nil)
	expectStatus(t, status, http.StatusOK, body)
}
