// Package stats reads community-wide counters and volunteer profiles from
// Redis. The bot pipeline that processes transcriptions owns these keys;
// this API only ever reads them.
package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNoProfile is returned when a volunteer has no profile hash in Redis.
var ErrNoProfile = errors.New("volunteer profile not found")

// Keys maintained by the bot pipeline.
const (
	counterCompleted = "total_completed"
	counterPosted    = "total_posted"
	setVolunteers    = "accepted_CoC"
	profilePrefix    = "volunteer:"
)

// Store wraps the Redis client behind the two read operations the API
// needs: integer counters and set cardinality, plus volunteer profile
// hashes for the user lookup endpoint.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis using a redis:// URL.
func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Close releases the client's connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Counter returns the integer value of a counter key. A key that was never
// incremented reads as zero.
func (s *Store) Counter(ctx context.Context, name string) (int64, error) {
	v, err := s.rdb.Get(ctx, name).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	return v, nil
}

// SetCardinality returns the number of members in a set key.
func (s *Store) SetCardinality(ctx context.Context, name string) (int64, error) {
	n, err := s.rdb.SCard(ctx, name).Result()
	if err != nil {
		return 0, fmt.Errorf("read set cardinality %s: %w", name, err)
	}
	return n, nil
}

// Summary is the aggregate snapshot served by the stats endpoint.
type Summary struct {
	TranscriptionCount      int64   `json:"transcription_count"`
	TranscriptionPercentage float64 `json:"transcription_percentage"`
	VolunteerCount          int64   `json:"volunteer_count"`
}

// Summarize reads the three community counters in one pass. The completion
// percentage is zero when nothing has been posted yet rather than a divide
// error.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	completed, err := s.Counter(ctx, counterCompleted)
	if err != nil {
		return nil, err
	}
	posted, err := s.Counter(ctx, counterPosted)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.SetCardinality(ctx, setVolunteers)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		TranscriptionCount: completed,
		VolunteerCount:     volunteers,
	}
	if posted > 0 {
		sum.TranscriptionPercentage = float64(completed) / float64(posted)
	}
	return sum, nil
}

// Volunteer returns the profile hash stored for username, or ErrNoProfile
// when the hash is empty or absent.
func (s *Store) Volunteer(ctx context.Context, username string) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, profilePrefix+username).Result()
	if err != nil {
		return nil, fmt.Errorf("read volunteer profile: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNoProfile
	}
	return fields, nil
}
