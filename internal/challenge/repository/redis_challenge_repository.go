// Package repository implements challenge persistence on Redis. Every
// mutation that touches more than one key runs as a single Lua script so the
// record's primary, uid, secret and throttle keys never disagree.
package repository

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	apperrors "github.com/allisson/challenge/internal/errors"
)

// RedisChallengeRepository implements challenge persistence for Redis.
type RedisChallengeRepository struct {
	client redis.UniversalClient
	keys   KeyScheme
}

// NewRedisChallengeRepository creates a Redis-backed challenge repository
// using the given key scheme.
func NewRedisChallengeRepository(client redis.UniversalClient, keys KeyScheme) *RedisChallengeRepository {
	return &RedisChallengeRepository{client: client, keys: keys}
}

// Keys exposes the repository's key scheme.
func (r *RedisChallengeRepository) Keys() KeyScheme {
	return r.keys
}

// Create stores a new challenge under all of its keys atomically. An active
// throttle window yields a ThrottledError; replacing an existing record
// erases the old record's keys and fills the new record's Related field with
// their names.
func (r *RedisChallengeRepository) Create(ctx context.Context, challenge *challengeDomain.Challenge) error {
	idKey := r.keys.Primary(challenge.Action, challenge.ID)
	uidKey := r.keys.UID(challenge.UID)
	if uidKey == "" {
		uidKey = idKey
	}
	secretKey := r.keys.Secret(challenge.Action, challenge.ID, challenge.Secret)
	if secretKey == "" {
		secretKey = idKey
	}

	settings, err := json.Marshal(challenge.Settings)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode challenge settings")
	}
	metadata := []byte("{}")
	if challenge.Metadata != nil {
		if metadata, err = json.Marshal(challenge.Metadata); err != nil {
			return apperrors.Wrap(challengeDomain.ErrMetadataNotSupported, err.Error())
		}
	}
	reason, err := json.Marshal(challengeDomain.ThrottleContext{
		ID:       challenge.ID,
		Action:   challenge.Action,
		Throttle: challenge.Throttle,
		Created:  challenge.Created,
	})
	if err != nil {
		return apperrors.Wrap(err, "failed to encode throttle context")
	}

	reply, err := createLua.Run(ctx, r.client,
		[]string{idKey, uidKey, secretKey, r.keys.Throttle(challenge.Action, challenge.ID)},
		challenge.ID,
		challenge.Action,
		challenge.UID,
		challenge.TTL,
		challenge.Throttle,
		challenge.Created,
		challenge.Secret,
		string(settings),
		string(metadata),
		r.keys.prefix,
		r.keys.separator,
		string(reason),
	).Result()
	if err != nil {
		return translateScriptError(err, "failed to create challenge")
	}

	challenge.Related = nil
	if related, ok := reply.([]interface{}); ok {
		for _, item := range related {
			if key, ok := item.(string); ok {
				challenge.Related = append(challenge.Related, key)
			}
		}
	}

	return nil
}

// Get reads a challenge through the locator's key.
func (r *RedisChallengeRepository) Get(
	ctx context.Context,
	locator challengeDomain.Locator,
) (*challengeDomain.Challenge, error) {
	fields, err := r.client.HGetAll(ctx, r.keys.Locate(locator)).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read challenge")
	}
	return challengeFromHash(fields)
}

// Verify reads a challenge through the locator's key and stamps the verified
// timestamp on every key of the record, or erases the record when erase is
// true. The throttle key survives erasure. The returned challenge reports
// whether this call was the first successful verification.
func (r *RedisChallengeRepository) Verify(
	ctx context.Context,
	locator challengeDomain.Locator,
	erase bool,
	now int64,
) (*challengeDomain.Challenge, error) {
	eraseArg := "false"
	if erase {
		eraseArg = "true"
	}

	reply, err := verifyLua.Run(ctx, r.client,
		[]string{r.keys.Locate(locator)},
		now,
		eraseArg,
		r.keys.prefix,
		r.keys.separator,
	).Result()
	if err != nil {
		return nil, translateScriptError(err, "failed to verify challenge")
	}

	return challengeFromReply(reply)
}

// UpdateSecret atomically swaps the challenge secret and repoints the secret
// key. The challenge must hold the secret observed by the caller's read: a
// mismatch means a concurrent mutation won and the call fails with a
// conflict.
func (r *RedisChallengeRepository) UpdateSecret(
	ctx context.Context,
	challenge *challengeDomain.Challenge,
	newSecret string,
) error {
	idKey := r.keys.Primary(challenge.Action, challenge.ID)
	uidKey := r.keys.UID(challenge.UID)
	if uidKey == "" {
		uidKey = idKey
	}
	oldSecretKey := r.keys.Secret(challenge.Action, challenge.ID, challenge.Secret)
	newSecretKey := r.keys.Secret(challenge.Action, challenge.ID, newSecret)

	reply, err := regenerateLua.Run(ctx, r.client,
		[]string{idKey, uidKey, oldSecretKey, newSecretKey},
		challenge.Secret,
		newSecret,
	).Result()
	if err != nil {
		return translateScriptError(err, "failed to regenerate challenge secret")
	}

	if raw, ok := reply.(string); ok {
		var related []string
		if err := json.Unmarshal([]byte(raw), &related); err == nil {
			challenge.Related = related
		}
	}
	challenge.Secret = newSecret

	return nil
}

// Remove deletes every key of the challenge, including the throttle key. The
// challenge must hold the secret observed by the caller's read.
func (r *RedisChallengeRepository) Remove(ctx context.Context, challenge *challengeDomain.Challenge) error {
	keys := []string{r.keys.Primary(challenge.Action, challenge.ID)}
	if uidKey := r.keys.UID(challenge.UID); uidKey != "" {
		keys = append(keys, uidKey)
	}
	if secretKey := r.keys.Secret(challenge.Action, challenge.ID, challenge.Secret); secretKey != "" {
		keys = append(keys, secretKey)
	}
	keys = append(keys, r.keys.Throttle(challenge.Action, challenge.ID))

	_, err := removeLua.Run(ctx, r.client, keys, challenge.Secret).Result()
	if err != nil {
		return translateScriptError(err, "failed to remove challenge")
	}
	return nil
}

// translateScriptError maps the status-code error replies produced by the
// Lua scripts onto domain errors.
func translateScriptError(err error, message string) error {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "429"):
		throttled := &challengeDomain.ThrottledError{}
		if raw, ok := strings.CutPrefix(msg, "429 "); ok {
			_ = json.Unmarshal([]byte(raw), &throttled.Context)
		}
		return throttled
	case strings.HasPrefix(msg, "409"):
		return challengeDomain.ErrChallengeConflict
	case strings.HasPrefix(msg, "404"):
		return challengeDomain.ErrChallengeNotFound
	default:
		return apperrors.Wrap(err, message)
	}
}
