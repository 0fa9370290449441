package redis

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/logger"
)

// AllPrincipals is the invalidation payload that drops every cached tenant.
const AllPrincipals = "*"

// Invalidator is what an invalidation signal is applied to.
// *tenant.Resolver satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, principalID string) error
	InvalidateAll(ctx context.Context) error
}

// PublishInvalidation tells every listener on channel to drop the cached
// tenant of principalID, or of everyone when principalID is AllPrincipals.
func PublishInvalidation(ctx context.Context, client redis.UniversalClient, channel, principalID string) error {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return ErrEmptyPrincipal
	}
	return client.Publish(ctx, channel, principalID).Err()
}

// InvalidationListener applies tenant reassignment signals published on a
// Redis channel.
type InvalidationListener struct {
	client  redis.UniversalClient
	channel string
	target  Invalidator
	logger  *slog.Logger
}

// NewInvalidationListener creates a listener. Call Run to start it.
func NewInvalidationListener(client redis.UniversalClient, channel string, target Invalidator, log *slog.Logger) *InvalidationListener {
	if log == nil {
		log = logger.Discard()
	}
	return &InvalidationListener{
		client:  client,
		channel: channel,
		target:  target,
		logger:  log.With(logger.Component("redis.invalidation")),
	}
}

// Run blocks until ctx is done, applying every message received.
func (l *InvalidationListener) Run(ctx context.Context) error {
	sub := l.client.Subscribe(ctx, l.channel)
	defer sub.Close()

	// Receive confirms the subscription before messages are consumed.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "listening for tenant invalidations", slog.String("channel", l.channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			l.Apply(ctx, msg.Payload)
		}
	}
}

// Apply handles one payload. Empty payloads are ignored.
func (l *InvalidationListener) Apply(ctx context.Context, payload string) {
	principalID := strings.TrimSpace(payload)

	var err error
	switch principalID {
	case "":
		l.logger.WarnContext(ctx, "ignoring empty invalidation message")
		return
	case AllPrincipals:
		err = l.target.InvalidateAll(ctx)
	default:
		err = l.target.Invalidate(ctx, principalID)
	}

	if err != nil {
		l.logger.ErrorContext(ctx, "failed to apply tenant invalidation", logger.PrincipalID(principalID), logger.Error(err))
		return
	}
	l.logger.DebugContext(ctx, "tenant invalidation applied", logger.PrincipalID(principalID))
}
