// Package policy decides whether a typed-data domain may be signed.
package policy

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yolodolo42/typedsig/internal/chain"
	"github.com/yolodolo42/typedsig/internal/eip712"
)

// ErrDenied is returned when a signing request violates the policy.
var ErrDenied = errors.New("denied by signing policy")

// Config is the policy section of the config file.
type Config struct {
	AllowContracts []string `yaml:"allow_contracts" mapstructure:"allow_contracts"`
	DenyContracts  []string `yaml:"deny_contracts" mapstructure:"deny_contracts"`
	AllowChains    []string `yaml:"allow_chains" mapstructure:"allow_chains"` // aliases or chain ids
	DenyRawDigest  bool     `yaml:"deny_raw_digest" mapstructure:"deny_raw_digest"`
}

// Policy enforces allow/deny lists on the domain of a signing request.
// Empty allow lists allow everything.
type Policy struct {
	AllowContracts []common.Address
	DenyContracts  []common.Address
	AllowChains    []*big.Int
	DenyRawDigest  bool
}

// Build resolves addresses and chain references of cfg.
func (cfg Config) Build(chains map[string]*chain.ChainConfig) (*Policy, error) {
	p := &Policy{DenyRawDigest: cfg.DenyRawDigest}
	var err error
	if p.AllowContracts, err = parseAddresses(cfg.AllowContracts); err != nil {
		return nil, err
	}
	if p.DenyContracts, err = parseAddresses(cfg.DenyContracts); err != nil {
		return nil, err
	}
	for _, ref := range cfg.AllowChains {
		id, _, err := chain.Lookup(chains, ref)
		if err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		p.AllowChains = append(p.AllowChains, id)
	}
	return p, nil
}

func parseAddresses(in []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("policy: invalid address %q", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

// Validate applies the contract and chain lists to a domain.
func (p *Policy) Validate(d eip712.Domain) error {
	for _, a := range p.DenyContracts {
		if a == d.VerifyingContract {
			return fmt.Errorf("%w: contract %s is denied", ErrDenied, d.VerifyingContract.Hex())
		}
	}
	if len(p.AllowContracts) > 0 {
		allowed := false
		for _, a := range p.AllowContracts {
			if a == d.VerifyingContract {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: contract %s is not in the allowlist", ErrDenied, d.VerifyingContract.Hex())
		}
	}
	if len(p.AllowChains) > 0 {
		allowed := false
		for _, id := range p.AllowChains {
			if d.ChainID != nil && id.Cmp(d.ChainID) == 0 {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: chain %s is not in the allowlist", ErrDenied, d.ChainID)
		}
	}
	return nil
}

// ValidateDigest reports whether a raw digest, whose domain cannot be
// inspected, may be signed.
func (p *Policy) ValidateDigest() error {
	if p.DenyRawDigest {
		return fmt.Errorf("%w: raw digest signing is disabled", ErrDenied)
	}
	return nil
}
