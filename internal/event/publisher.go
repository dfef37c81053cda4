package event

import (
	"context"
	"fmt"
	"time"

	"github.com/FeruzLatifov/hemis-back-sub004/pkg/kafka"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/logger"
)

// Topics this service publishes to.
const (
	TopicUserLoggedIn     = "hemis.auth.user.logged_in"
	TopicTokenRevoked     = "hemis.auth.token.revoked"
	TopicCacheInvalidated = "hemis.cache.invalidated"
)

const source = "identity-service"

// UserLoggedInData is the payload of a login event.
type UserLoggedInData struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	SourceStore string    `json:"source_store"`
	LoggedInAt  time.Time `json:"logged_in_at"`
}

// TokenRevokedData is the payload of a revocation event.
type TokenRevokedData struct {
	UserID    string    `json:"user_id"`
	TokenIDs  []string  `json:"token_ids"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}

// CacheInvalidatedData tells sibling instances to drop their tier-1 entries.
type CacheInvalidatedData struct {
	Scope   string   `json:"scope"`
	UserIDs []string `json:"user_ids,omitempty"`
}

// Publisher emits this service's domain events. It satisfies cache.Notifier.
type Publisher struct {
	producer *kafka.Producer
}

// NewPublisher creates a publisher over the given Kafka producer.
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

// UserLoggedIn announces a successful login.
func (p *Publisher) UserLoggedIn(ctx context.Context, userID, username, sourceStore string) error {
	data := UserLoggedInData{
		UserID:      userID,
		Username:    username,
		SourceStore: sourceStore,
		LoggedInAt:  time.Now().UTC(),
	}
	return p.publish(ctx, TopicUserLoggedIn, "user.logged_in", userID, "user", data)
}

// TokenRevoked announces that a session's tokens were revoked.
func (p *Publisher) TokenRevoked(ctx context.Context, userID string, tokenIDs []string, reason string) error {
	data := TokenRevokedData{
		UserID:    userID,
		TokenIDs:  tokenIDs,
		Reason:    reason,
		RevokedAt: time.Now().UTC(),
	}
	return p.publish(ctx, TopicTokenRevoked, "token.revoked", userID, "user", data)
}

// CacheInvalidated announces a completed cache invalidation so sibling
// instances can drop their process-local entries.
func (p *Publisher) CacheInvalidated(ctx context.Context, scope string, userIDs []string) error {
	data := CacheInvalidatedData{
		Scope:   scope,
		UserIDs: userIDs,
	}
	return p.publish(ctx, TopicCacheInvalidated, "cache.invalidated", scope, "cache", data)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	return p.producer.Publish(ctx, topic, evt)
}
