package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/metrics"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrAppendOnly is returned when Set targets the failed lookups key
var ErrAppendOnly = errors.New("failed lookups partition is append-only")

// ErrCorrupt is returned when a partition exists but does not parse
var ErrCorrupt = errors.New("cache partition is corrupt")

// corruptSuffix names the partition a corrupt failed lookups history is moved to
const corruptSuffix = ".corrupt"

// envelope is the on-disk shape of every partition
type envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Items     json.RawMessage `json:"items"`
}

// Store is a TTL-governed cache of JSON payloads keyed by logical cache keys
type Store struct {
	backend Backend
	base    string
	ttl     time.Duration
	now     func() time.Time
	logger  *logrus.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the store's time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store writing partitions named after base through backend
func NewStore(backend Backend, base string, ttl time.Duration, logger *logrus.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		base:    base,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partition exposes the partition a key maps to
func (s *Store) Partition(key string) PartitionDescriptor {
	return PartitionFor(s.base, key)
}

// Get returns the payload stored under key if present and not expired.
// Absent, unreadable and expired partitions are all reported as a miss.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	desc := s.Partition(key)
	log := s.logger.WithFields(logrus.Fields{
		"cache_key": key,
		"partition": desc.Name,
	})

	env, ok := s.readEnvelope(desc)
	if !ok {
		return nil, false
	}

	if desc.Expires && s.now().Sub(env.Timestamp) > s.ttl {
		log.WithField("written_at", env.Timestamp).Debug("Cache partition expired")
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		return nil, false
	}

	payload := env.Items
	if desc.Merged {
		items, err := decodeMerged(env.Items)
		if err != nil {
			log.WithError(err).Warn("Cache partition is malformed, treating as miss")
			metrics.CacheLookups.WithLabelValues("corrupt").Inc()
			return nil, false
		}
		entry, found := items[desc.SubKey]
		if !found {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			return nil, false
		}
		payload = entry
	}

	if len(payload) == 0 {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	log.Debug("Cache hit")
	return payload, true
}

// Load decodes the payload under key into v; decode failures count as a miss
func (s *Store) Load(key string, v interface{}) bool {
	payload, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		s.logger.WithError(err).WithField("cache_key", key).Warn("Cached payload does not decode, treating as miss")
		return false
	}
	return true
}

// Set stores payload under key and refreshes the partition timestamp.
// Episode keys are merged into the shared partition so other shows survive.
func (s *Store) Set(key string, payload interface{}) error {
	desc := s.Partition(key)
	if key == FailedLookupsKey {
		return ErrAppendOnly
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	items := json.RawMessage(data)
	if desc.Merged {
		merged := map[string]json.RawMessage{}
		// Expired siblings are dropped rather than revived by the new timestamp
		if env, ok := s.readEnvelope(desc); ok && s.now().Sub(env.Timestamp) <= s.ttl {
			if existing, err := decodeMerged(env.Items); err == nil {
				merged = existing
			}
		}
		merged[desc.SubKey] = items
		if items, err = json.Marshal(merged); err != nil {
			return fmt.Errorf("failed to marshal merged partition: %w", err)
		}
	}

	if err := s.writeEnvelope(desc, items); err != nil {
		return err
	}

	metrics.CacheWrites.WithLabelValues(desc.Name).Inc()
	s.logger.WithFields(logrus.Fields{
		"cache_key": key,
		"partition": desc.Name,
	}).Debug("Cache checkpoint written")
	return nil
}

// AppendFailedLookup adds a record to the failed lookups partition.
// Records are never deduplicated or expired.
func (s *Store) AppendFailedLookup(lookup models.FailedLookup) error {
	existing, err := s.FailedLookups()
	if errors.Is(err, ErrCorrupt) {
		if qerr := s.quarantineFailedLookups(); qerr != nil {
			return fmt.Errorf("failed to load failed lookups before append: %w", err)
		}
		existing = []models.FailedLookup{}
	} else if err != nil {
		return fmt.Errorf("failed to load failed lookups before append: %w", err)
	}
	if lookup.Timestamp.IsZero() {
		lookup.Timestamp = s.now()
	}

	data, err := json.Marshal(append(existing, lookup))
	if err != nil {
		return fmt.Errorf("failed to marshal failed lookups: %w", err)
	}
	desc := s.Partition(FailedLookupsKey)
	if err := s.writeEnvelope(desc, data); err != nil {
		return err
	}
	metrics.CacheWrites.WithLabelValues(desc.Name).Inc()
	return nil
}

// FailedLookups returns every recorded failed lookup, oldest first
func (s *Store) FailedLookups() ([]models.FailedLookup, error) {
	desc := s.Partition(FailedLookupsKey)
	data, err := s.backend.Read(desc.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.FailedLookup{}, nil
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse failed lookups partition: %w: %w", ErrCorrupt, err)
	}
	lookups := []models.FailedLookup{}
	if len(env.Items) > 0 {
		if err := json.Unmarshal(env.Items, &lookups); err != nil {
			return nil, fmt.Errorf("failed to parse failed lookups: %w: %w", ErrCorrupt, err)
		}
	}
	return lookups, nil
}

// quarantineFailedLookups copies an unparsable history aside so appends can start a fresh one
func (s *Store) quarantineFailedLookups() error {
	desc := s.Partition(FailedLookupsKey)
	log := s.logger.WithFields(logrus.Fields{
		"partition":   desc.Name,
		"quarantined": desc.Name + corruptSuffix,
	})

	data, err := s.backend.Read(desc.Name)
	if err != nil {
		log.WithError(err).Error("Failed to read corrupt failed lookups partition")
		return err
	}
	if err := s.backend.Write(desc.Name+corruptSuffix, data); err != nil {
		log.WithError(err).Error("Failed to move corrupt failed lookups partition aside")
		return err
	}

	metrics.CacheLookups.WithLabelValues("corrupt").Inc()
	log.Warn("Failed lookups partition is corrupt, moved aside and starting a new history")
	return nil
}

// ClearFailedLookups removes the failed lookups partition
func (s *Store) ClearFailedLookups() error {
	return s.backend.Remove(s.Partition(FailedLookupsKey).Name)
}

// readEnvelope loads and parses a partition, logging why it could not be used
func (s *Store) readEnvelope(desc PartitionDescriptor) (envelope, bool) {
	log := s.logger.WithField("partition", desc.Name)

	data, err := s.backend.Read(desc.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Debug("Cache partition absent")
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		} else {
			log.WithError(err).Warn("Cache partition unreadable, treating as miss")
			metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		}
		return envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.WithError(err).Warn("Cache partition is malformed, treating as miss")
		metrics.CacheLookups.WithLabelValues("corrupt").Inc()
		return envelope{}, false
	}
	return env, true
}

func (s *Store) writeEnvelope(desc PartitionDescriptor, items json.RawMessage) error {
	data, err := json.Marshal(envelope{Timestamp: s.now(), Items: items})
	if err != nil {
		return fmt.Errorf("failed to marshal partition %s: %w", desc.Name, err)
	}
	if err := s.backend.Write(desc.Name, data); err != nil {
		return fmt.Errorf("failed to write partition %s: %w", desc.Name, err)
	}
	return nil
}

func decodeMerged(raw json.RawMessage) (map[string]json.RawMessage, error) {
	items := map[string]json.RawMessage{}
	if len(raw) == 0 || string(raw) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
