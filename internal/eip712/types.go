package eip712

import (
	"strconv"
	"strings"
)

// MaxArrayDepth bounds how many array suffixes a type string may carry.
const MaxArrayDepth = 10

// Kind identifies the variant held by a Type.
type Kind uint8

const (
	KindAddress Kind = iota + 1
	KindUint
	KindInt
	KindString
	KindBool
	KindBytes
	KindFixedBytes
	KindCustom
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindFixedBytes:
		return "fixed bytes"
	case KindCustom:
		return "struct"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Type is a parsed Solidity type as used by EIP-712 field declarations.
//
// Size is the declared bit width for KindUint/KindInt (0 for the bare "uint"
// and "int" aliases) and the byte width for KindFixedBytes. Name is set for
// KindCustom. Elem and Length are set for KindArray; a Length of 0 is a
// dynamically sized array.
type Type struct {
	Kind   Kind
	Size   int
	Name   string
	Elem   *Type
	Length uint64
}

// Bits returns the integer width, resolving the bare aliases to 256.
func (t Type) Bits() int {
	if t.Size == 0 {
		return 256
	}
	return t.Size
}

// Depth returns the array nesting depth of t.
func (t Type) Depth() int {
	depth := 0
	for cur := &t; cur.Kind == KindArray; cur = cur.Elem {
		depth++
	}
	return depth
}

// Base returns the innermost non-array type.
func (t Type) Base() Type {
	cur := t
	for cur.Kind == KindArray {
		cur = *cur.Elem
	}
	return cur
}

// String renders the canonical type string, e.g. "uint256", "Person[][3]".
func (t Type) String() string {
	var suffix []string
	cur := t
	for cur.Kind == KindArray {
		if cur.Length == 0 {
			suffix = append(suffix, "[]")
		} else {
			suffix = append(suffix, "["+strconv.FormatUint(cur.Length, 10)+"]")
		}
		cur = *cur.Elem
	}

	var b strings.Builder
	switch cur.Kind {
	case KindUint, KindInt:
		b.WriteString(cur.Kind.String())
		if cur.Size != 0 {
			b.WriteString(strconv.Itoa(cur.Size))
		}
	case KindFixedBytes:
		b.WriteString("bytes")
		b.WriteString(strconv.Itoa(cur.Size))
	case KindCustom:
		b.WriteString(cur.Name)
	default:
		b.WriteString(cur.Kind.String())
	}
	// Suffixes were collected outermost first; the outermost array is written last.
	for i := len(suffix) - 1; i >= 0; i-- {
		b.WriteString(suffix[i])
	}
	return b.String()
}
