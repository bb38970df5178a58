package services

import (
	"context"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localnerve/recipe-board/internal/models"
	"github.com/localnerve/recipe-board/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

var testWebhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("recipe-board-test-secret"))

func TestWebhookVerifier(t *testing.T) {
	v, err := NewWebhookVerifier(testWebhookSecret)
	require.NoError(t, err)
	at := time.Unix(1_700_000_000, 0)
	v.now = func() time.Time { return at.Add(time.Minute) }

	body := []byte(`{"type":"user.created"}`)
	ts, sig, err := v.Sign("msg_1", at, body)
	require.NoError(t, err)

	assert.NoError(t, v.Verify("msg_1", ts, sig, body))
	assert.NoError(t, v.Verify("msg_1", ts, "v1,bm9wZQ== "+sig, body), "any matching entry passes")
	assert.ErrorIs(t, v.Verify("msg_1", ts, sig, []byte(`{"type":"user.deleted"}`)), ErrBadSignature)
	assert.ErrorIs(t, v.Verify("msg_2", ts, sig, body), ErrBadSignature)
	assert.ErrorIs(t, v.Verify("msg_1", ts, "v2"+sig[2:], body), ErrBadSignature)
	assert.ErrorIs(t, v.Verify("", ts, sig, body), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify("msg_1", "yesterday", sig, body), ErrStaleTimestamp)

	v.now = func() time.Time { return at.Add(WebhookTolerance + time.Second) }
	assert.ErrorIs(t, v.Verify("msg_1", ts, sig, body), ErrStaleTimestamp)
	v.now = func() time.Time { return at.Add(-WebhookTolerance - time.Second) }
	assert.ErrorIs(t, v.Verify("msg_1", ts, sig, body), ErrStaleTimestamp)
}

func TestWebhookVerifierAcceptsSvixDeliveries(t *testing.T) {
	v, err := NewWebhookVerifier(testWebhookSecret)
	require.NoError(t, err)
	at := time.Now()

	sender, err := svix.NewWebhook(testWebhookSecret)
	require.NoError(t, err)
	body := []byte(`{"type":"user.updated","data":{"id":"user_1"}}`)
	sig, err := sender.Sign("msg_svix", at, body)
	require.NoError(t, err)

	ts := strconv.FormatInt(at.Unix(), 10)
	assert.NoError(t, v.Verify("msg_svix", ts, sig, body))

	other, err := svix.NewWebhook("whsec_" + base64.StdEncoding.EncodeToString([]byte("another-secret")))
	require.NoError(t, err)
	forged, err := other.Sign("msg_svix", at, body)
	require.NoError(t, err)
	assert.ErrorIs(t, v.Verify("msg_svix", ts, forged, body), ErrBadSignature)
}

func TestNewWebhookVerifierRejectsBadSecrets(t *testing.T) {
	for _, secret := range []string{"", "secret", "whsec_", "whsec_!!!"} {
		_, err := NewWebhookVerifier(secret)
		assert.ErrorIs(t, err, ErrInvalidSecretSpec, secret)
	}
}

func TestApplyUserEvent(t *testing.T) {
	db := testutil.NewDB(t)
	first := "Ada"
	created := UserEvent{Type: "user.created", Data: UserEventData{
		ID: "user_1",
		EmailAddresses: []EmailAddress{
			{ID: "e1", EmailAddress: "old@example.com"},
			{ID: "e2", EmailAddress: "ada@example.com"},
		},
		PrimaryEmailAddressID: "e2",
		FirstName:             &first,
	}}
	require.NoError(t, ApplyUserEvent(db, created))

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", "user_1").Error)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Ada", *user.FirstName)

	last := "Lovelace"
	updated := created
	updated.Type = "user.updated"
	updated.Data.LastName = &last
	updated.Data.PrimaryEmailAddressID = "missing"
	require.NoError(t, ApplyUserEvent(db, updated))
	require.NoError(t, db.First(&user, "id = ?", "user_1").Error)
	assert.Equal(t, "old@example.com", user.Email, "falls back to the first address")
	require.NotNil(t, user.LastName)
	assert.Equal(t, "Lovelace", *user.LastName)

	assert.NoError(t, ApplyUserEvent(db, UserEvent{Type: "session.created", Data: UserEventData{ID: "user_1"}}))
	assert.Error(t, ApplyUserEvent(db, UserEvent{Type: "user.created"}))
}

func TestApplyUserEventDeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	todoBoard(t, db, "user_1")
	todoBoard(t, db, "user_1")
	keep := testutil.SeedBoard(t, db, "user_2", "Other", testutil.ColumnSpec{Title: "Todo", Cards: []string{"X"}})

	require.NoError(t, ApplyUserEvent(db, UserEvent{Type: "user.deleted", Data: UserEventData{ID: "user_1", Deleted: true}}))

	var boards, users, cards int64
	require.NoError(t, db.Model(&models.Board{}).Count(&boards).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Card{}).Count(&cards).Error)
	assert.EqualValues(t, 1, boards)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, cards)
	assert.Equal(t, []string{"X"}, testutil.CardTitles(t, db, keep.Columns[0].ID))
}

func TestRedisLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	ledger, err := NewRedisLedger("redis://" + mr.Addr())
	require.NoError(t, err)
	defer ledger.Close()
	ctx := context.Background()

	require.NoError(t, ledger.Ping(ctx))

	first, err := ledger.FirstDelivery(ctx, "msg_1")
	require.NoError(t, err)
	assert.True(t, first)
	again, err := ledger.FirstDelivery(ctx, "msg_1")
	require.NoError(t, err)
	assert.False(t, again)
	assert.True(t, mr.Exists("recipe-board:webhook:msg_1"))

	require.NoError(t, ledger.Forget(ctx, "msg_1"))
	retry, err := ledger.FirstDelivery(ctx, "msg_1")
	require.NoError(t, err)
	assert.True(t, retry)

	mr.FastForward(ledger.TTL + time.Second)
	expired, err := ledger.FirstDelivery(ctx, "msg_1")
	require.NoError(t, err)
	assert.True(t, expired)

	_, err = NewRedisLedger("not a url")
	assert.Error(t, err)
}
