// webhook.go
//
// Recipe development board data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of recipe-board.
// recipe-board is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// recipe-board is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with recipe-board.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/localnerve/recipe-board/internal/models"
	"github.com/redis/go-redis/v9"
	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Webhook signature errors
var (
	ErrMissingSignature  = errors.New("missing webhook signature headers")
	ErrStaleTimestamp    = errors.New("webhook timestamp outside tolerance")
	ErrBadSignature      = errors.New("no matching webhook signature")
	ErrInvalidSecretSpec = errors.New("webhook secret must be whsec_ followed by base64")
)

// WebhookTolerance bounds the age and skew of a signed delivery
const WebhookTolerance = 5 * time.Minute

// WebhookVerifier checks signed identity webhooks with the svix scheme.
// Timestamp tolerance is checked against now, the signature by svix.
type WebhookVerifier struct {
	wh  *svix.Webhook
	now func() time.Time
}

// NewWebhookVerifier decodes a whsec_ secret
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	encoded, ok := strings.CutPrefix(secret, "whsec_")
	if !ok {
		return nil, ErrInvalidSecretSpec
	}
	if key, err := base64.StdEncoding.DecodeString(encoded); err != nil || len(key) == 0 {
		return nil, ErrInvalidSecretSpec
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretSpec, err)
	}
	return &WebhookVerifier{wh: wh, now: time.Now}, nil
}

// Sign produces the timestamp and signature header values for a delivery
func (v *WebhookVerifier) Sign(id string, at time.Time, body []byte) (timestamp, signature string, err error) {
	signature, err = v.wh.Sign(id, at, body)
	if err != nil {
		return "", "", err
	}
	return strconv.FormatInt(at.Unix(), 10), signature, nil
}

// Verify checks the delivery headers against body
func (v *WebhookVerifier) Verify(id, timestamp, signature string, body []byte) error {
	if id == "" || timestamp == "" || signature == "" {
		return ErrMissingSignature
	}
	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrStaleTimestamp
	}
	if skew := v.now().Sub(time.Unix(secs, 0)); skew > WebhookTolerance || skew < -WebhookTolerance {
		return ErrStaleTimestamp
	}

	headers := http.Header{}
	headers.Set("svix-id", id)
	headers.Set("svix-timestamp", timestamp)
	headers.Set("svix-signature", signature)
	if err := v.wh.VerifyIgnoringTimestamp(body, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// UserEvent is an identity provider user lifecycle event
type UserEvent struct {
	Type string        `json:"type"`
	Data UserEventData `json:"data"`
}

// UserEventData is the user profile carried by a UserEvent
type UserEventData struct {
	ID                    string         `json:"id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              *string        `json:"image_url"`
	Deleted               bool           `json:"deleted"`
}

// EmailAddress is one address of a user profile
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the primary address, or the first one
func (d UserEventData) PrimaryEmail() string {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(d.EmailAddresses) > 0 {
		return d.EmailAddresses[0].EmailAddress
	}
	return ""
}

// ApplyUserEvent upserts or deletes the user an event describes. Deleting a
// user deletes every board it owns. Unknown event types are ignored.
func ApplyUserEvent(db *gorm.DB, evt UserEvent) error {
	if evt.Data.ID == "" {
		return fmt.Errorf("event %s has no user id", evt.Type)
	}

	switch evt.Type {
	case "user.created", "user.updated":
		user := models.User{
			ID:        evt.Data.ID,
			Email:     evt.Data.PrimaryEmail(),
			FirstName: evt.Data.FirstName,
			LastName:  evt.Data.LastName,
			ImageURL:  evt.Data.ImageURL,
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "image_url", "updated_at"}),
		}).Create(&user).Error

	case "user.deleted":
		return db.Transaction(func(tx *gorm.DB) error {
			var boardIDs []string
			if err := silent(tx).Model(&models.Board{}).Where("owner_id = ?", evt.Data.ID).Pluck("id", &boardIDs).Error; err != nil {
				return err
			}
			if err := deleteBoards(tx, boardIDs); err != nil {
				return err
			}
			return tx.Where("id = ?", evt.Data.ID).Delete(&models.User{}).Error
		})
	}

	log.Printf("Ignoring webhook event type %s", evt.Type)
	return nil
}

// DeliveryLedger remembers webhook delivery ids
type DeliveryLedger interface {
	// FirstDelivery records id and reports whether it had not been seen
	FirstDelivery(ctx context.Context, id string) (bool, error)
	// Forget drops id so a failed delivery can be retried
	Forget(ctx context.Context, id string) error
}

// RedisLedger is a DeliveryLedger in redis; entries expire after TTL
type RedisLedger struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisLedger connects to the redis at url
func NewRedisLedger(url string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &RedisLedger{Client: redis.NewClient(opts), TTL: 24 * time.Hour}, nil
}

// FirstDelivery implements DeliveryLedger
func (l *RedisLedger) FirstDelivery(ctx context.Context, id string) (bool, error) {
	return l.Client.SetNX(ctx, "recipe-board:webhook:"+id, time.Now().Unix(), l.TTL).Result()
}

// Forget implements DeliveryLedger
func (l *RedisLedger) Forget(ctx context.Context, id string) error {
	return l.Client.Del(ctx, "recipe-board:webhook:"+id).Err()
}

// Ping checks the redis connection
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

// Close closes the redis connection
func (l *RedisLedger) Close() error {
	return l.Client.Close()
}
