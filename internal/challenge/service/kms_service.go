package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"gocloud.dev/secrets"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService unwraps the KMS-encrypted shared secret at startup using
// gocloud.dev/secrets.
type KMSService interface {
	// DecryptSharedSecret opens a keeper for keyURI and decrypts the
	// base64-encoded wrapped secret.
	DecryptSharedSecret(ctx context.Context, keyURI, encryptedSecret string) ([]byte, error)
}

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// DecryptSharedSecret opens a secrets.Keeper for the configured KMS provider
// and unwraps the shared secret.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func (k *kmsService) DecryptSharedSecret(
	ctx context.Context,
	keyURI, encryptedSecret string,
) ([]byte, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	wrapped, err := base64.StdEncoding.DecodeString(encryptedSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted shared secret: %w", err)
	}

	plaintext, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt shared secret: %w", err)
	}

	return plaintext, nil
}
