package wallet

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of the R || S || V encoding.
const SignatureLength = 65

// Signature is a recoverable secp256k1 signature with V in {27, 28}.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// ParseSignature decodes a 65-byte R || S || V signature. V may be given as
// 0/1 or 27/28 and is normalized to 27/28.
func ParseSignature(b []byte) (Signature, error) {
	if len(b) != SignatureLength {
		return Signature{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(b))
	}

	var sig Signature
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:64])
	switch v := b[64]; v {
	case 0, 1:
		sig.V = v + 27
	case 27, 28:
		sig.V = v
	default:
		return Signature{}, fmt.Errorf("%w: recovery byte %d", ErrInvalidSignature, v)
	}
	return sig, nil
}

// ParseSignatureHex decodes a 0x-prefixed hex signature.
func ParseSignatureHex(s string) (Signature, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return ParseSignature(b)
}

// Bytes returns the 65-byte R || S || V encoding.
func (s Signature) Bytes() []byte {
	out := make([]byte, SignatureLength)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// Hex returns the 0x-prefixed hex encoding of Bytes.
func (s Signature) Hex() string {
	return hexutil.Encode(s.Bytes())
}

func (s Signature) String() string {
	return s.Hex()
}

// MarshalJSON encodes the signature as a hex string.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Hex())
}

// RecoverAddress returns the address whose key produced sig over digest.
// High-S (malleable) signatures are rejected.
func RecoverAddress(digest common.Hash, sig Signature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, fmt.Errorf("%w: recovery byte %d", ErrInvalidSignature, sig.V)
	}
	recid := sig.V - 27
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if !crypto.ValidateSignatureValues(recid, r, s, true) {
		return common.Address{}, fmt.Errorf("%w: r or s out of range", ErrInvalidSignature)
	}

	raw := sig.Bytes()
	raw[64] = recid
	pub, err := crypto.SigToPub(digest[:], raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether sig over digest was produced by address.
func Verify(address common.Address, digest common.Hash, sig Signature) (bool, error) {
	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		return false, err
	}
	return recovered == address, nil
}
