package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
)

func newTestRepository(t *testing.T) (*RedisChallengeRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisChallengeRepository(client, NewKeyScheme("chl!v1", "!")), mr
}

func newTestChallenge() *challengeDomain.Challenge {
	return &challengeDomain.Challenge{
		ID:       "user@example.com",
		Action:   "activate",
		UID:      "c664fb8e-37d3-4f4d-9ae4-68d4d2bd0cd3",
		Secret:   "secret-1",
		Settings: &challengeDomain.SecretSettings{Type: challengeDomain.SecretUUID, Encrypt: true},
		Metadata: map[string]interface{}{"plan": "premium"},
		TTL:      300,
		Throttle: 60,
		Created:  time.Now().UnixMilli(),
	}
}

func TestKeyScheme(t *testing.T) {
	keys := NewKeyScheme("chl!v1", "!")

	assert.Equal(t, "chl!v1!activate!user@example.com", keys.Primary("activate", "user@example.com"))
	assert.Equal(t, "chl!v1!-!-!uid!uid-1", keys.UID("uid-1"))
	assert.Empty(t, keys.UID(""))
	assert.Equal(t, "chl!v1!activate!user@example.com!secret!tok", keys.Secret("activate", "user@example.com", "tok"))
	assert.Empty(t, keys.Secret("activate", "user@example.com", ""))
	assert.Equal(t, "chl!v1!activate!user@example.com!throttle", keys.Throttle("activate", "user@example.com"))

	// locator precedence: uid > secret > primary
	assert.Equal(t,
		keys.UID("uid-1"),
		keys.Locate(challengeDomain.Locator{UID: "uid-1", Action: "activate", ID: "x", Secret: "tok"}),
	)
	assert.Equal(t,
		keys.Secret("activate", "x", "tok"),
		keys.Locate(challengeDomain.Locator{Action: "activate", ID: "x", Secret: "tok"}),
	)
	assert.Equal(t,
		keys.Primary("activate", "x"),
		keys.Locate(challengeDomain.Locator{Action: "activate", ID: "x"}),
	)
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()

	require.NoError(t, repo.Create(ctx, challenge))
	assert.Empty(t, challenge.Related)

	locators := map[string]challengeDomain.Locator{
		"by action and id": {Action: challenge.Action, ID: challenge.ID},
		"by uid":           {UID: challenge.UID},
		"by secret":        {Action: challenge.Action, ID: challenge.ID, Secret: challenge.Secret},
	}

	for name, locator := range locators {
		t.Run(name, func(t *testing.T) {
			found, err := repo.Get(ctx, locator)
			require.NoError(t, err)
			assert.Equal(t, challenge.ID, found.ID)
			assert.Equal(t, challenge.Action, found.Action)
			assert.Equal(t, challenge.UID, found.UID)
			assert.Equal(t, challenge.Secret, found.Secret)
			assert.Equal(t, challenge.Created, found.Created)
			assert.Equal(t, challenge.TTL, found.TTL)
			assert.Equal(t, challenge.Throttle, found.Throttle)
			assert.Equal(t, map[string]interface{}{"plan": "premium"}, found.Metadata)
			require.NotNil(t, found.Settings)
			assert.Equal(t, challengeDomain.SecretUUID, found.Settings.Type)
			assert.False(t, found.IsVerified())
		})
	}

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.Get(ctx, challengeDomain.Locator{Action: "activate", ID: "nobody"})
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)
	})
}

func TestRepositoryCreateWithoutOptionalKeys(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	challenge := &challengeDomain.Challenge{
		ID:      "bare",
		Action:  "activate",
		Created: time.Now().UnixMilli(),
	}
	require.NoError(t, repo.Create(ctx, challenge))

	found, err := repo.Get(ctx, challengeDomain.Locator{Action: "activate", ID: "bare"})
	require.NoError(t, err)
	assert.Empty(t, found.UID)
	assert.Empty(t, found.Secret)
}

func TestRepositoryThrottle(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()

	require.NoError(t, repo.Create(ctx, challenge))

	t.Run("second create inside the window", func(t *testing.T) {
		err := repo.Create(ctx, newTestChallenge())
		require.Error(t, err)

		throttled := &challengeDomain.ThrottledError{}
		require.ErrorAs(t, err, &throttled)
		assert.Equal(t, challenge.ID, throttled.Context.ID)
		assert.Equal(t, challenge.Action, throttled.Context.Action)
		assert.Equal(t, int64(60), throttled.Context.Throttle)
		assert.Equal(t, challenge.Created, throttled.Context.Created)
	})

	t.Run("create succeeds after the window", func(t *testing.T) {
		mr.FastForward(61 * time.Second)
		assert.NoError(t, repo.Create(ctx, newTestChallenge()))
	})
}

func TestRepositoryCreateOverExisting(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	first := newTestChallenge()
	require.NoError(t, repo.Create(ctx, first))
	mr.FastForward(61 * time.Second)

	second := newTestChallenge()
	second.UID = "11111111-2222-3333-4444-555555555555"
	second.Secret = "secret-2"
	require.NoError(t, repo.Create(ctx, second))

	// the replaced record's keys are recorded and its indexes erased
	assert.Equal(t, []string{
		repo.Keys().Primary(first.Action, first.ID),
		repo.Keys().UID(first.UID),
		repo.Keys().Secret(first.Action, first.ID, first.Secret),
	}, second.Related)

	_, err := repo.Get(ctx, challengeDomain.Locator{UID: first.UID})
	assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)
	_, err = repo.Get(ctx, challengeDomain.Locator{Action: first.Action, ID: first.ID, Secret: first.Secret})
	assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)

	found, err := repo.Get(ctx, challengeDomain.Locator{Action: second.Action, ID: second.ID})
	require.NoError(t, err)
	assert.Equal(t, "secret-2", found.Secret)
	assert.Len(t, found.Related, 3)
}

func TestRepositoryUpdateSecret(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	oldSecret := challenge.Secret
	stale := *challenge

	require.NoError(t, repo.UpdateSecret(ctx, challenge, "secret-2"))
	assert.Equal(t, "secret-2", challenge.Secret)
	assert.Equal(t, []string{oldSecret}, challenge.Related)

	t.Run("all lookup paths see the new secret", func(t *testing.T) {
		for _, locator := range []challengeDomain.Locator{
			{Action: challenge.Action, ID: challenge.ID},
			{UID: challenge.UID},
			{Action: challenge.Action, ID: challenge.ID, Secret: "secret-2"},
		} {
			found, err := repo.Get(ctx, locator)
			require.NoError(t, err)
			assert.Equal(t, "secret-2", found.Secret)
		}
	})

	t.Run("old secret key is gone", func(t *testing.T) {
		_, err := repo.Get(ctx, challengeDomain.Locator{Action: challenge.Action, ID: challenge.ID, Secret: oldSecret})
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)
	})

	t.Run("stale secret conflicts", func(t *testing.T) {
		err := repo.UpdateSecret(ctx, &stale, "secret-3")
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeConflict)
	})
}

func TestRepositoryVerify(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	locator := challengeDomain.Locator{Action: challenge.Action, ID: challenge.ID, Secret: challenge.Secret}
	now := time.Now().UnixMilli()

	t.Run("first verification stamps the timestamp", func(t *testing.T) {
		found, err := repo.Verify(ctx, locator, false, now)
		require.NoError(t, err)
		assert.True(t, found.IsFirstVerification)
		assert.Equal(t, now, found.Verified)
	})

	t.Run("repeat verification keeps the original timestamp", func(t *testing.T) {
		found, err := repo.Verify(ctx, locator, false, now+5000)
		require.NoError(t, err)
		assert.False(t, found.IsFirstVerification)
		assert.Equal(t, now, found.Verified)
	})

	t.Run("verified is visible through every key", func(t *testing.T) {
		found, err := repo.Get(ctx, challengeDomain.Locator{UID: challenge.UID})
		require.NoError(t, err)
		assert.Equal(t, now, found.Verified)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.Verify(ctx, challengeDomain.Locator{Action: "activate", ID: "nobody"}, false, now)
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)
	})
}

func TestRepositoryVerifyErase(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	locator := challengeDomain.Locator{UID: challenge.UID}

	found, err := repo.Verify(ctx, locator, true, time.Now().UnixMilli())
	require.NoError(t, err)
	assert.True(t, found.IsFirstVerification)

	// every record key is gone
	for _, l := range []challengeDomain.Locator{
		{Action: challenge.Action, ID: challenge.ID},
		{UID: challenge.UID},
		{Action: challenge.Action, ID: challenge.ID, Secret: challenge.Secret},
	} {
		_, err := repo.Get(ctx, l)
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)
	}

	// but the throttle window survives erasure
	err = repo.Create(ctx, newTestChallenge())
	throttled := &challengeDomain.ThrottledError{}
	assert.ErrorAs(t, err, &throttled)
}

func TestRepositoryRemove(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	t.Run("stale secret conflicts", func(t *testing.T) {
		stale := *challenge
		stale.Secret = "not-the-secret"
		assert.ErrorIs(t, repo.Remove(ctx, &stale), challengeDomain.ErrChallengeConflict)
	})

	t.Run("removes every key including throttle", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, challenge))

		_, err := repo.Get(ctx, challengeDomain.Locator{Action: challenge.Action, ID: challenge.ID})
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)

		// throttle key is gone as well, an immediate create succeeds
		assert.NoError(t, repo.Create(ctx, newTestChallenge()))
	})
}

func TestRepositoryTTLExpiry(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()
	challenge := newTestChallenge()
	require.NoError(t, repo.Create(ctx, challenge))

	mr.FastForward(301 * time.Second)

	for _, locator := range []challengeDomain.Locator{
		{Action: challenge.Action, ID: challenge.ID},
		{UID: challenge.UID},
		{Action: challenge.Action, ID: challenge.ID, Secret: challenge.Secret},
	} {
		_, err := repo.Get(ctx, locator)
		assert.ErrorIs(t, err, challengeDomain.ErrChallengeNotFound)
	}
}
