package riskfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
	"github.com/troikatech/planwise/pkg/infrastructure/events"
)

// cacheKey holds the latest fetched feed payload
const cacheKey = "riskfeed:risks"

// Fetcher pulls risk records from an upstream source
type Fetcher interface {
	FetchRisks(ctx context.Context) ([]*entities.ExternalRisk, error)
}

// EventPublisher pushes sync events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Syncer refreshes the store's external risks from the feed, reading
// through a Redis cache so repeated syncs within the TTL do not hit the
// upstream service.
type Syncer struct {
	feed      Fetcher
	cache     *redis.Client
	store     repositories.Store
	publisher EventPublisher
	ttl       time.Duration
	log       *logrus.Entry
}

// NewSyncer creates a risk feed syncer. The cache client may be nil, in
// which case every sync goes to the feed.
func NewSyncer(feed Fetcher, cache *redis.Client, store repositories.Store, ttl time.Duration, log *logrus.Logger) *Syncer {
	return &Syncer{
		feed:  feed,
		cache: cache,
		store: store,
		ttl:   ttl,
		log:   log.WithField("component", "riskfeed_syncer"),
	}
}

// WithPublisher makes the syncer emit a risks.synced event after each
// successful sync
func (s *Syncer) WithPublisher(publisher EventPublisher) *Syncer {
	s.publisher = publisher
	return s
}

// Sync loads current risks (cache first, then feed) and upserts them into
// the store. Returns the number of records written.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	risks, fromCache, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	if err := s.store.UpsertRisks(ctx, risks); err != nil {
		return 0, errors.Wrap(err, "upsert risks")
	}

	s.publish(ctx, events.NewEvent(events.RisksSyncedEvent, "risks", events.RisksSynced{
		Count: len(risks),
	}))

	s.log.WithFields(logrus.Fields{
		"count":      len(risks),
		"from_cache": fromCache,
	}).Info("risk feed synced")
	return len(risks), nil
}

// publish sends an event best-effort; a broker failure never fails a sync
func (s *Syncer) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("type", event.Type()).Warn("event publish failed")
	}
}

// load returns risks from the cache when fresh, falling back to the feed
// and repopulating the cache on a miss
func (s *Syncer) load(ctx context.Context) ([]*entities.ExternalRisk, bool, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var risks []*entities.ExternalRisk
			if json.Unmarshal([]byte(cached), &risks) == nil {
				return risks, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).Warn("risk cache unavailable, reading feed directly")
		}
	}

	risks, err := s.feed.FetchRisks(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "fetch risks")
	}

	if s.cache != nil {
		if payload, err := json.Marshal(risks); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.log.WithError(err).Warn("risk cache write failed")
			}
		}
	}

	return risks, false, nil
}
