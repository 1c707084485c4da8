package app

import (
	"context"
	"fmt"
	"sync"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	challengeHTTP "github.com/allisson/challenge/internal/challenge/http"
	challengeRepository "github.com/allisson/challenge/internal/challenge/repository"
	challengeService "github.com/allisson/challenge/internal/challenge/service"
	challengeUseCase "github.com/allisson/challenge/internal/challenge/usecase"
	"github.com/allisson/challenge/internal/metrics"
)

// challengeComponents groups the lazily initialized challenge dependencies.
type challengeComponents struct {
	cipher     *challengeService.EnvelopeCipher
	repository *challengeRepository.RedisChallengeRepository
	useCase    challengeUseCase.ChallengeUseCase
	handler    *challengeHTTP.ChallengeHandler

	cipherInit     sync.Once
	repositoryInit sync.Once
	useCaseInit    sync.Once
	handlerInit    sync.Once
}

// Cipher returns the bearer token cipher.
// When a KMS key URI is configured, the wrapped shared secret is unwrapped
// on first access before the cipher is built.
func (c *Container) Cipher() (*challengeService.EnvelopeCipher, error) {
	var err error
	c.challenge.cipherInit.Do(func() {
		c.challenge.cipher, err = c.initCipher()
		if err != nil {
			c.initErrors["cipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cipher"]; exists {
		return nil, storedErr
	}
	return c.challenge.cipher, nil
}

// ChallengeRepository returns the Redis-backed challenge repository.
func (c *Container) ChallengeRepository() (*challengeRepository.RedisChallengeRepository, error) {
	var err error
	c.challenge.repositoryInit.Do(func() {
		c.challenge.repository, err = c.initChallengeRepository()
		if err != nil {
			c.initErrors["challengeRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["challengeRepository"]; exists {
		return nil, storedErr
	}
	return c.challenge.repository, nil
}

// ChallengeUseCase returns the challenge use case instance.
func (c *Container) ChallengeUseCase() (challengeUseCase.ChallengeUseCase, error) {
	var err error
	c.challenge.useCaseInit.Do(func() {
		c.challenge.useCase, err = c.initChallengeUseCase()
		if err != nil {
			c.initErrors["challengeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["challengeUseCase"]; exists {
		return nil, storedErr
	}
	return c.challenge.useCase, nil
}

// ChallengeHandler returns the challenge HTTP handler instance.
func (c *Container) ChallengeHandler() (*challengeHTTP.ChallengeHandler, error) {
	var err error
	c.challenge.handlerInit.Do(func() {
		var useCase challengeUseCase.ChallengeUseCase
		useCase, err = c.ChallengeUseCase()
		if err != nil {
			c.initErrors["challengeHandler"] = err
			return
		}
		c.challenge.handler = challengeHTTP.NewChallengeHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["challengeHandler"]; exists {
		return nil, storedErr
	}
	return c.challenge.handler, nil
}

// initCipher resolves the shared secret and builds the envelope cipher.
func (c *Container) initCipher() (*challengeService.EnvelopeCipher, error) {
	algorithm := challengeDomain.Algorithm(c.config.CipherAlgorithm)
	if err := algorithm.Validate(); err != nil {
		return nil, err
	}

	sharedSecret := []byte(c.config.SharedSecret)

	if c.config.KMSKeyURI != "" && c.config.EncryptedSharedSecret != "" {
		kms := challengeService.NewKMSService()
		unwrapped, err := kms.DecryptSharedSecret(
			context.Background(),
			c.config.KMSKeyURI,
			c.config.EncryptedSharedSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap shared secret: %w", err)
		}
		sharedSecret = unwrapped
	}

	var legacySecret []byte
	if c.config.LegacySecret != "" {
		legacySecret = []byte(c.config.LegacySecret)
	}

	return challengeService.NewEnvelopeCipher(algorithm, sharedSecret, legacySecret)
}

// initChallengeRepository creates the Redis-backed challenge repository.
func (c *Container) initChallengeRepository() (*challengeRepository.RedisChallengeRepository, error) {
	redisClient, err := c.Redis()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for challenge repository: %w", err)
	}

	keys := challengeRepository.NewKeyScheme(c.config.KeyPrefix, c.config.KeySeparator)
	return challengeRepository.NewRedisChallengeRepository(redisClient, keys), nil
}

// initChallengeUseCase creates the challenge use case with its dependencies,
// wrapped with the metrics decorator when metrics are enabled.
func (c *Container) initChallengeUseCase() (challengeUseCase.ChallengeUseCase, error) {
	repo, err := c.ChallengeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get repository for challenge use case: %w", err)
	}

	cipher, err := c.Cipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get cipher for challenge use case: %w", err)
	}

	useCase := challengeUseCase.NewChallengeUseCase(repo, cipher)

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for challenge use case: %w", err)
	}
	if metricsProvider == nil {
		return useCase, nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(metricsProvider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return challengeUseCase.NewChallengeUseCaseWithMetrics(useCase, businessMetrics), nil
}
