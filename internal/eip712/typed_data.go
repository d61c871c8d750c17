// Package eip712 hashes typed structured data as defined by EIP-712: it parses
// Solidity type strings, builds canonical type signatures, encodes message
// values into 32-byte words and combines them into the signing digest.
package eip712

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// TypedData is a validated EIP-712 document. It is immutable once built and
// carries its domain separator and primary struct hash.
type TypedData struct {
	Types       Types
	PrimaryType string
	Domain      Domain
	Message     Value

	registry        *Registry
	domainSeparator common.Hash
	structHash      common.Hash
}

// NewTypedData validates the parts of a document and hashes them. Every
// schema problem (unknown or cyclic types, a message that does not match the
// primary type, a malformed domain) is returned here rather than at signing
// time.
func NewTypedData(types Types, primaryType string, domain Domain, message Value) (*TypedData, error) {
	if primaryType == "" {
		return nil, fmt.Errorf("%w: primaryType is empty", ErrInvalidDocument)
	}
	if _, ok := types[primaryType]; !ok {
		return nil, fmt.Errorf("%w: primaryType %s is not declared", ErrUnknownType, primaryType)
	}
	if declared, ok := types[DomainType]; ok {
		if err := checkDeclaredDomain(declared, domain); err != nil {
			return nil, err
		}
	}

	registry, err := NewRegistry(types)
	if err != nil {
		return nil, err
	}

	domainSeparator, err := domain.Separator()
	if err != nil {
		return nil, err
	}
	structHash, err := registry.HashStruct(primaryType, message)
	if err != nil {
		return nil, err
	}

	return &TypedData{
		Types:           registry.Types(),
		PrimaryType:     primaryType,
		Domain:          domain,
		Message:         message,
		registry:        registry,
		domainSeparator: domainSeparator,
		structHash:      structHash,
	}, nil
}

// Registry returns the validated type registry of the document.
func (td *TypedData) Registry() *Registry { return td.registry }

// DomainSeparator returns hashStruct("EIP712Domain", domain).
func (td *TypedData) DomainSeparator() common.Hash { return td.domainSeparator }

// StructHash returns hashStruct(primaryType, message).
func (td *TypedData) StructHash() common.Hash { return td.structHash }

// Hash returns the signing digest keccak256(0x19 0x01 || domainSeparator || structHash).
func (td *TypedData) Hash() common.Hash {
	return Digest(td.domainSeparator, td.structHash)
}

// HashParts returns the domain separator, the primary struct hash and the digest.
func (td *TypedData) HashParts() (domainSeparator, structHash, digest common.Hash) {
	return td.domainSeparator, td.structHash, td.Hash()
}

// WithChainID returns a copy of the document bound to another chain.
func (td *TypedData) WithChainID(chainID *big.Int) (*TypedData, error) {
	domain := td.Domain
	domain.ChainID = new(big.Int).Set(chainID)
	types := td.registry.Types()
	if _, ok := types[DomainType]; ok {
		types[DomainType] = domain.Fields()
	}
	return NewTypedData(types, td.PrimaryType, domain, td.Message)
}

// document is the wire shape shared by the JSON and YAML forms.
type document struct {
	Types       Types  `json:"types" yaml:"types"`
	PrimaryType string `json:"primaryType" yaml:"primaryType"`
	Domain      Value  `json:"domain" yaml:"domain"`
	Message     Value  `json:"message" yaml:"message"`
}

// MarshalJSON encodes the document in the standard wire shape.
func (td *TypedData) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Types:       td.Types,
		PrimaryType: td.PrimaryType,
		Domain:      td.Domain.Value(),
		Message:     td.Message,
	})
}

// ParseJSON decodes and validates a JSON typed-data document. Unknown
// top-level members are rejected.
func ParseJSON(data []byte) (*TypedData, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidDocument)
	}
	return doc.build()
}

// ParseYAML decodes and validates a YAML typed-data document with the same
// shape and rules as ParseJSON.
func ParseYAML(data []byte) (*TypedData, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc.build()
}

func (doc document) build() (*TypedData, error) {
	if doc.Types == nil {
		return nil, fmt.Errorf("%w: types is missing", ErrInvalidDocument)
	}
	if doc.Message.IsNull() {
		return nil, fmt.Errorf("%w: message is missing", ErrInvalidDocument)
	}
	domain, err := ParseDomain(doc.Domain)
	if err != nil {
		return nil, err
	}
	return NewTypedData(doc.Types, doc.PrimaryType, domain, doc.Message)
}
