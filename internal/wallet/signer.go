package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/yolodolo42/typedsig/internal/eip712"
)

var (
	ErrInvalidPrivateKey   = errors.New("invalid private key")
	ErrInvalidDigestLength = errors.New("digest must be 32 bytes")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrSignerLocked        = errors.New("signer is locked")
)

// Signer signs EIP-712 digests.
// Different implementations support different key sources.
type Signer interface {
	// Address returns the Ethereum address of the signer
	Address() common.Address

	// SignDigest signs a precomputed 32-byte digest
	SignDigest(digest common.Hash) (Signature, error)

	// SignTypedData signs the digest of a validated typed-data document
	SignTypedData(td *eip712.TypedData) (Signature, error)

	// Lock drops the key material; later signing calls fail with ErrSignerLocked
	Lock()
}

// SignDigest signs digest with a raw 32-byte secp256k1 private key. The nonce
// is derived deterministically (RFC 6979), so the same inputs always produce
// the same signature.
func SignDigest(digest, privateKey []byte) (Signature, error) {
	if len(digest) != common.HashLength {
		return Signature{}, fmt.Errorf("%w: got %d", ErrInvalidDigestLength, len(digest))
	}
	key, err := toECDSA(privateKey)
	if err != nil {
		return Signature{}, err
	}
	defer key.D.SetInt64(0)

	return sign(digest, key)
}

func sign(digest []byte, key *ecdsa.PrivateKey) (Signature, error) {
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return Signature{}, err
	}

	// crypto.Sign returns V as 0/1; ecrecover and wallets expect 27/28.
	sig[64] += 27

	return ParseSignature(sig)
}

func toECDSA(privateKey []byte) (*ecdsa.PrivateKey, error) {
	if len(privateKey) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPrivateKey, len(privateKey))
	}
	// ToECDSA rejects zero and values at or above the curve order.
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// KeySigner implements Signer over an in-memory private key.
type KeySigner struct {
	// mu protects key so that signing cannot race with Lock zeroing it.
	mu      sync.RWMutex
	address common.Address
	key     *ecdsa.PrivateKey // nil when locked
}

// NewKeySigner creates a signer from a raw 32-byte private key.
func NewKeySigner(privateKey []byte) (*KeySigner, error) {
	key, err := toECDSA(privateKey)
	if err != nil {
		return nil, err
	}
	return newKeySigner(key), nil
}

func newKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		address: crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
	}
}

// Address returns the address of the signer
func (ks *KeySigner) Address() common.Address {
	return ks.address
}

// SignDigest signs a 32-byte digest
func (ks *KeySigner) SignDigest(digest common.Hash) (Signature, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.key == nil {
		return Signature{}, ErrSignerLocked
	}
	return sign(digest[:], ks.key)
}

// SignTypedData signs the EIP-712 digest of td
func (ks *KeySigner) SignTypedData(td *eip712.TypedData) (Signature, error) {
	return ks.SignDigest(td.Hash())
}

// Lock zeros the private key so it does not linger in memory. Safe to call
// multiple times.
func (ks *KeySigner) Lock() {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.key != nil {
		ks.key.D.SetInt64(0)
		ks.key = nil
	}
}
