package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5" //nolint:gosec // required for compatibility with the legacy key derivation
	"errors"
)

// legacyCipher decrypts tokens issued by deployments that predate the
// versioned envelope format. Those tokens were produced with OpenSSL's
// password-based construction: the key and IV are derived from the secret
// with EVP_BytesToKey (MD5, no salt, one iteration) and the data is encrypted
// with AES-256-CBC. This cipher only ever decrypts.
type legacyCipher struct {
	key []byte
	iv  []byte
}

func newLegacyCipher(secret []byte) *legacyCipher {
	key, iv := evpBytesToKey(secret, 32, aes.BlockSize)
	return &legacyCipher{key: key, iv: iv}
}

func (l *legacyCipher) decrypt(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, errors.New("legacy ciphertext is not block aligned")
	}

	block, err := aes.NewCipher(l.key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, l.iv).CryptBlocks(plaintext, data)

	return pkcs7Unpad(plaintext)
}

// evpBytesToKey derives key material the way OpenSSL's EVP_BytesToKey does
// with MD5 and no salt: D_1 = MD5(secret), D_n = MD5(D_{n-1} ‖ secret),
// concatenated until keyLen+ivLen bytes are available.
func evpBytesToKey(secret []byte, keyLen, ivLen int) (key, iv []byte) {
	var material []byte
	var prev []byte

	for len(material) < keyLen+ivLen {
		h := md5.New() //nolint:gosec // legacy compatibility
		h.Write(prev)
		h.Write(secret)
		prev = h.Sum(nil)
		material = append(material, prev...)
	}

	return material[:keyLen], material[keyLen : keyLen+ivLen]
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}

	padding := int(data[len(data)-1])
	if padding < 1 || padding > aes.BlockSize || padding > len(data) {
		return nil, errors.New("invalid padding")
	}

	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errors.New("invalid padding")
		}
	}

	return data[:len(data)-padding], nil
}
