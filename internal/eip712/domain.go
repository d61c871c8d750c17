package eip712

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DomainType is the reserved struct name of the domain separator.
const DomainType = "EIP712Domain"

// Domain binds a signature to an application, chain and verifying contract.
// Salt is optional; when nil it is left out of the domain type entirely.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
	Salt              *common.Hash
}

var domainFields = []Field{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
	{Name: "salt", Type: "bytes32"},
}

// Fields returns the implicit EIP712Domain member list for d.
func (d Domain) Fields() []Field {
	if d.Salt == nil {
		return append([]Field(nil), domainFields[:4]...)
	}
	return append([]Field(nil), domainFields...)
}

// Value returns d as a document value matching Fields.
func (d Domain) Value() Value {
	chainID := new(big.Int)
	if d.ChainID != nil {
		chainID.Set(d.ChainID)
	}
	m := map[string]Value{
		"name":              String(d.Name),
		"version":           String(d.Version),
		"chainId":           BigInt(chainID),
		"verifyingContract": String(d.VerifyingContract.Hex()),
	}
	if d.Salt != nil {
		m["salt"] = String(d.Salt.Hex())
	}
	return Object(m)
}

// Separator returns hashStruct("EIP712Domain", d).
func (d Domain) Separator() (common.Hash, error) {
	if d.ChainID == nil {
		return common.Hash{}, &FieldTypeMismatchError{Field: "domain.chainId", Expected: "uint256", Found: "null"}
	}
	r, err := NewRegistry(Types{DomainType: d.Fields()})
	if err != nil {
		return common.Hash{}, err
	}
	return r.hashStruct(DomainType, d.Value(), "domain")
}

// DomainSeparator returns the domain separator of d.
func DomainSeparator(d Domain) (common.Hash, error) {
	return d.Separator()
}

// ParseDomain converts a decoded domain object into a Domain. Missing or
// malformed members are reported as schema errors.
func ParseDomain(v Value) (Domain, error) {
	obj, ok := v.AsObject()
	if !ok {
		return Domain{}, mismatch("domain", DomainType, v)
	}

	known := make(map[string]struct{}, len(domainFields))
	for _, f := range domainFields {
		known[f.Name] = struct{}{}
	}
	var unknown []string
	for k := range obj {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Domain{}, fmt.Errorf("%w: domain.%s", ErrUnknownField, unknown[0])
	}

	var d Domain
	var err error

	if d.Name, err = domainString(obj, "name"); err != nil {
		return Domain{}, err
	}
	if d.Version, err = domainString(obj, "version"); err != nil {
		return Domain{}, err
	}

	chainID, present := obj["chainId"]
	n, ok := integerValue(chainID)
	if !present || !ok || !fitsInteger(Type{Kind: KindUint, Size: 256}, n) {
		return Domain{}, mismatch("domain.chainId", "uint256", chainID)
	}
	d.ChainID = n

	contract, present := obj["verifyingContract"]
	s, ok := contract.AsString()
	if !present || !ok || !common.IsHexAddress(s) {
		return Domain{}, mismatch("domain.verifyingContract", "address", contract)
	}
	d.VerifyingContract = common.HexToAddress(s)

	if salt, present := obj["salt"]; present && !salt.IsNull() {
		b, ok := hexBytes(salt)
		if !ok || len(b) != common.HashLength {
			return Domain{}, mismatch("domain.salt", "bytes32", salt)
		}
		h := common.BytesToHash(b)
		d.Salt = &h
	}

	return d, nil
}

func domainString(obj map[string]Value, key string) (string, error) {
	v := obj[key]
	s, ok := v.AsString()
	if !ok {
		return "", mismatch("domain."+key, "string", v)
	}
	return s, nil
}

// checkDeclaredDomain verifies that an explicit EIP712Domain declaration agrees
// with the implicit member list derived from the domain value.
func checkDeclaredDomain(declared []Field, d Domain) error {
	want := d.Fields()
	for i, f := range want {
		if i >= len(declared) {
			return &FieldTypeMismatchError{Field: DomainType + "." + f.Name, Expected: f.Type, Found: "null"}
		}
		got := declared[i]
		if got.Name != f.Name || got.Type != f.Type {
			return &FieldTypeMismatchError{
				Field:    DomainType + "." + f.Name,
				Expected: f.Type + " " + f.Name,
				Found:    got.Type + " " + got.Name,
			}
		}
	}
	if len(declared) > len(want) {
		extra := declared[len(want)]
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, DomainType, extra.Name)
	}
	return nil
}

// Digest returns keccak256(0x19 0x01 || domainSeparator || structHash), the
// value that is actually signed.
func Digest(domainSeparator, structHash common.Hash) common.Hash {
	buf := make([]byte, 0, 2+2*common.HashLength)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, domainSeparator[:]...)
	buf = append(buf, structHash[:]...)
	return crypto.Keccak256Hash(buf)
}
