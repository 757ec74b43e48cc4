package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
)

// RedisStore persists users and ledgers in Redis.
//
// Layout:
//
//	user:{email}                     JSON user profile, created with SETNX
//	ledger:{email}:{kind}:{date}     hash, field "HH:00" -> accumulated float
//	ledger:{email}:{kind}:dates      set of dates with at least one write
//
// Cell increments run as one Lua script (HINCRBYFLOAT plus the date index),
// so concurrent writers to the same cell are serialized by the server
// without client-side locking.
type RedisStore struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(url string, log *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return NewRedisStoreFromClient(client, log), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, log *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		log:    log.Named("redis-store"),
	}
}

// overflowReply is the error text Redis uses when HINCRBYFLOAT would leave
// the float range; the increment script reuses it.
const overflowReply = "increment would produce NaN or Infinity"

// incrementScript adds ARGV[2] to field ARGV[1] of KEYS[1] and records the
// date ARGV[3] in KEYS[2]. Nothing is written if the sum is not finite.
var incrementScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local sum = cur + tonumber(ARGV[2])
if sum ~= sum or sum == math.huge or sum == -math.huge then
  return redis.error_reply('ERR ` + overflowReply + `')
end
redis.call('HINCRBYFLOAT', KEYS[1], ARGV[1], ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
return 1
`)

func userKey(email string) string {
	return "user:" + email
}

func dayKey(email string, kind ledger.Kind, date string) string {
	return "ledger:" + email + ":" + string(kind) + ":" + date
}

func datesKey(email string, kind ledger.Kind) string {
	return "ledger:" + email + ":" + string(kind) + ":dates"
}

// CreateUser stores the profile only if the email is not taken.
func (s *RedisStore) CreateUser(ctx context.Context, user ledger.UserRecord) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	created, err := s.client.SetNX(ctx, userKey(user.Email), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateUser, user.Email)
	}
	return nil
}

// GetUser loads the profile stored for email.
func (s *RedisStore) GetUser(ctx context.Context, email string) (ledger.UserRecord, error) {
	raw, err := s.client.Get(ctx, userKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ledger.UserRecord{}, ledger.ErrUserNotFound
		}
		return ledger.UserRecord{}, fmt.Errorf("loading user: %w", err)
	}

	var user ledger.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		return ledger.UserRecord{}, fmt.Errorf("decoding user %s: %w", email, err)
	}
	return user, nil
}

// Increment adds r.Value to its hash field and records the date in the index
// atomically. A sum that leaves the float64 range is rejected with
// ledger.ErrInvalidValue and nothing is written.
func (s *RedisStore) Increment(ctx context.Context, r ledger.Reading) error {
	if _, ok := ledger.HourIndex(r.Hour); !ok {
		return fmt.Errorf("%w: %q", ledger.ErrInvalidHour, r.Hour)
	}
	if err := ledger.ValidateKind(r.Kind); err != nil {
		return err
	}

	n, err := s.client.Exists(ctx, userKey(r.Email)).Result()
	if err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrUnknownUser, r.Email)
	}

	keys := []string{dayKey(r.Email, r.Kind, r.Date), datesKey(r.Email, r.Kind)}
	value := strconv.FormatFloat(r.Value, 'g', -1, 64)
	err = incrementScript.Run(ctx, s.client, keys, r.Hour, value, r.Date).Err()
	if err != nil {
		if strings.Contains(err.Error(), overflowReply) {
			return fmt.Errorf("%w: sum overflows", ledger.ErrInvalidValue)
		}
		return fmt.Errorf("incrementing %s %s %s: %w", r.Kind, r.Date, r.Hour, err)
	}
	return nil
}

// LedgerForDate reads the hash for one date.
func (s *RedisStore) LedgerForDate(ctx context.Context, kind ledger.Kind, email, date string) (ledger.HourRecord, error) {
	fields, err := s.client.HGetAll(ctx, dayKey(email, kind, date)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return decodeRecord(fields)
}

// Export assembles the user document from the profile and every indexed date.
func (s *RedisStore) Export(ctx context.Context, email string) (ledger.UserDocument, error) {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return ledger.UserDocument{}, err
	}

	doc := ledger.UserDocument{
		Name:           user.Name,
		Email:          user.Email,
		PasswordDigest: user.PasswordDigest,
	}
	if doc.Consumption, err = s.exportKind(ctx, email, ledger.KindConsumption); err != nil {
		return ledger.UserDocument{}, err
	}
	if doc.Production, err = s.exportKind(ctx, email, ledger.KindProduction); err != nil {
		return ledger.UserDocument{}, err
	}
	return doc, nil
}

func (s *RedisStore) exportKind(ctx context.Context, email string, kind ledger.Kind) (map[string]ledger.HourRecord, error) {
	dates, err := s.client.SMembers(ctx, datesKey(email, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s dates: %w", kind, err)
	}

	out := make(map[string]ledger.HourRecord, len(dates))
	for _, d := range dates {
		rec, err := s.LedgerForDate(ctx, kind, email, d)
		if err != nil {
			return nil, err
		}
		out[d] = rec
	}
	return out, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRecord(fields map[string]string) (ledger.HourRecord, error) {
	rec := make(ledger.HourRecord, len(fields))
	for hour, raw := range fields {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", hour, err)
		}
		rec[hour] = v
	}
	return rec, nil
}
