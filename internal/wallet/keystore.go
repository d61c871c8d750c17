package wallet

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParsePrivateKey decodes a hex private key with or without the 0x prefix.
// Shorter keys are left-padded to 32 bytes, so "0xa11ce" is accepted.
func ParsePrivateKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if s == "" || len(s) > 64 {
		return nil, fmt.Errorf("%w: expected up to 64 hex characters, got %d", ErrInvalidPrivateKey, len(s))
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}

	b, err := hexutil.Decode("0x" + s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	key := common.LeftPadBytes(b, 32)
	if _, err := toECDSA(key); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadKeyFile reads a hex private key from a file.
func LoadKeyFile(path string) (*KeySigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	key, err := ParsePrivateKey(string(data))
	if err != nil {
		return nil, err
	}
	return NewKeySigner(key)
}

// LoadKeystore decrypts a go-ethereum V3 keystore file. The returned signer
// holds the decrypted key until Lock is called.
func LoadKeystore(path, password string) (*KeySigner, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key: %w", err)
	}

	return newKeySigner(key.PrivateKey), nil
}
