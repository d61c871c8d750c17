package eip712

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// EncodedField is one member of a struct together with its 32-byte encoding.
type EncodedField struct {
	Name string
	Type string
	Word [32]byte
}

// HashStruct returns keccak256(typeHash(name) || encodeData(name, value)).
func (r *Registry) HashStruct(name string, value Value) (common.Hash, error) {
	return r.hashStruct(name, value, name)
}

// EncodeData returns the concatenated 32-byte encodings of the members of
// value, in the declaration order of struct type name.
func (r *Registry) EncodeData(name string, value Value) ([]byte, error) {
	fields, err := r.encodeFields(name, value, name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 32*len(fields))
	for _, f := range fields {
		out = append(out, f.Word[:]...)
	}
	return out, nil
}

// EncodeFields is EncodeData with the per-member breakdown kept.
func (r *Registry) EncodeFields(name string, value Value) ([]EncodedField, error) {
	return r.encodeFields(name, value, name)
}

// EncodeValue encodes a single value of type t into one 32-byte word.
func (r *Registry) EncodeValue(t Type, value Value) ([32]byte, error) {
	return r.encodeValue(t, value, t.String())
}

func (r *Registry) hashStruct(name string, value Value, path string) (common.Hash, error) {
	typeHash, err := r.TypeHash(name)
	if err != nil {
		return common.Hash{}, err
	}
	fields, err := r.encodeFields(name, value, path)
	if err != nil {
		return common.Hash{}, err
	}
	buf := make([]byte, 0, 32*(len(fields)+1))
	buf = append(buf, typeHash[:]...)
	for _, f := range fields {
		buf = append(buf, f.Word[:]...)
	}
	return crypto.Keccak256Hash(buf), nil
}

func (r *Registry) encodeFields(name string, value Value, path string) ([]EncodedField, error) {
	fields, ok := r.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	obj, ok := value.AsObject()
	if !ok {
		return nil, mismatch(path, name, value)
	}

	declared := make(map[string]struct{}, len(fields))
	out := make([]EncodedField, 0, len(fields))
	for _, f := range fields {
		declared[f.name] = struct{}{}
		fieldPath := path + "." + f.name
		v, present := obj[f.name]
		if !present {
			return nil, &FieldTypeMismatchError{Field: fieldPath, Expected: f.typ.String(), Found: "null"}
		}
		word, err := r.encodeValue(f.typ, v, fieldPath)
		if err != nil {
			return nil, err
		}
		out = append(out, EncodedField{Name: f.name, Type: f.typ.String(), Word: word})
	}

	if len(obj) > len(fields) {
		var extra []string
		for k := range obj {
			if _, ok := declared[k]; !ok {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: %s.%s is not declared on %s", ErrUnknownField, path, extra[0], name)
	}
	return out, nil
}

func (r *Registry) encodeValue(t Type, value Value, path string) ([32]byte, error) {
	var word [32]byte

	switch t.Kind {
	case KindArray:
		items, ok := value.AsArray()
		if !ok {
			return word, mismatch(path, t.String(), value)
		}
		if t.Length != 0 && uint64(len(items)) != t.Length {
			return word, &ArrayLengthMismatchError{Field: path, Expected: t.Length, Found: len(items)}
		}
		buf := make([]byte, 0, 32*len(items))
		for i, item := range items {
			w, err := r.encodeValue(*t.Elem, item, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return word, err
			}
			buf = append(buf, w[:]...)
		}
		return crypto.Keccak256Hash(buf), nil

	case KindCustom:
		if !r.Has(t.Name) {
			return word, fmt.Errorf("%w: %s", ErrUnknownType, t.Name)
		}
		return r.hashStruct(t.Name, value, path)

	case KindString:
		s, ok := value.AsString()
		if !ok {
			return word, mismatch(path, "string", value)
		}
		return crypto.Keccak256Hash([]byte(s)), nil

	case KindBytes:
		b, ok := hexBytes(value)
		if !ok {
			return word, mismatch(path, "bytes", value)
		}
		return crypto.Keccak256Hash(b), nil

	case KindFixedBytes:
		b, ok := hexBytes(value)
		if !ok || len(b) > t.Size {
			return word, mismatch(path, t.String(), value)
		}
		copy(word[:], b)
		return word, nil

	case KindBool:
		b, ok := value.AsBool()
		if !ok {
			return word, mismatch(path, "bool", value)
		}
		if b {
			word[31] = 1
		}
		return word, nil

	case KindAddress:
		s, ok := value.AsString()
		if !ok || !common.IsHexAddress(s) {
			return word, mismatch(path, "address", value)
		}
		copy(word[12:], common.HexToAddress(s).Bytes())
		return word, nil

	case KindUint, KindInt:
		n, ok := integerValue(value)
		if !ok || !fitsInteger(t, n) {
			return word, mismatch(path, t.String(), value)
		}
		copy(word[:], math.U256Bytes(n))
		return word, nil
	}

	return word, fmt.Errorf("%w: %s", ErrUnknownType, t.String())
}

// hexBytes decodes a 0x-prefixed hex string value.
func hexBytes(value Value) ([]byte, bool) {
	s, ok := value.AsString()
	if !ok {
		return nil, false
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// integerValue accepts JSON/YAML numbers and strings in decimal or 0x-prefixed
// hex, either with an optional leading minus sign. The result is a fresh
// big.Int the caller may modify.
func integerValue(value Value) (*big.Int, bool) {
	switch value.Kind() {
	case NumberValue:
		lit, _ := value.AsNumber()
		if n, ok := parseInteger(lit); ok {
			return n, true
		}
		// Exponent or fraction notation is accepted only for integral values.
		f, _, err := big.ParseFloat(lit, 10, 512, big.ToNearestEven)
		if err != nil || !f.IsInt() || f.MantExp(nil) > 257 {
			return nil, false
		}
		n, _ := f.Int(nil)
		return n, true
	case StringValue:
		s, _ := value.AsString()
		return parseInteger(strings.TrimSpace(s))
	default:
		return nil, false
	}
}

func parseInteger(s string) (*big.Int, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

// fitsInteger reports whether n is representable in the declared integer type.
func fitsInteger(t Type, n *big.Int) bool {
	bits := t.Bits()
	if t.Kind == KindUint {
		return n.Sign() >= 0 && n.BitLen() <= bits
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if n.Sign() >= 0 {
		return n.Cmp(limit) < 0
	}
	return n.Cmp(limit.Neg(limit)) >= 0
}
