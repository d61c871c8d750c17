package chain

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ErrUnknownChain is returned when a chain reference is neither a known alias
// nor a chain id.
var ErrUnknownChain = errors.New("unknown chain")

// ChainConfig describes an EVM chain a typed-data domain can be bound to.
// Invariant: ChainID and ChainIDInt must always represent the same value.
// ChainIDInt exists for config serialization (big.Int doesn't serialize cleanly).
// ChainID is what ends up in the EIP-712 domain.
type ChainConfig struct {
	Name           string   `yaml:"name" mapstructure:"name"`
	ChainID        *big.Int `yaml:"-" mapstructure:"-"`
	ChainIDInt     int64    `yaml:"chain_id" mapstructure:"chain_id"`
	ExplorerURL    string   `yaml:"explorer_url" mapstructure:"explorer_url"`
	NativeCurrency string   `yaml:"native_currency" mapstructure:"native_currency"`
	IsTestnet      bool     `yaml:"is_testnet" mapstructure:"is_testnet"`
}

// DefaultChains returns the built-in chain table keyed by alias
func DefaultChains() map[string]*ChainConfig {
	return map[string]*ChainConfig{
		"ethereum": {
			Name:           "Ethereum Mainnet",
			ChainID:        big.NewInt(1),
			ChainIDInt:     1,
			ExplorerURL:    "https://etherscan.io",
			NativeCurrency: "ETH",
			IsTestnet:      false,
		},
		"base": {
			Name:           "Base",
			ChainID:        big.NewInt(8453),
			ChainIDInt:     8453,
			ExplorerURL:    "https://basescan.org",
			NativeCurrency: "ETH",
			IsTestnet:      false,
		},
		"arbitrum": {
			Name:           "Arbitrum One",
			ChainID:        big.NewInt(42161),
			ChainIDInt:     42161,
			ExplorerURL:    "https://arbiscan.io",
			NativeCurrency: "ETH",
			IsTestnet:      false,
		},
		"optimism": {
			Name:           "Optimism",
			ChainID:        big.NewInt(10),
			ChainIDInt:     10,
			ExplorerURL:    "https://optimistic.etherscan.io",
			NativeCurrency: "ETH",
			IsTestnet:      false,
		},
		"polygon": {
			Name:           "Polygon",
			ChainID:        big.NewInt(137),
			ChainIDInt:     137,
			ExplorerURL:    "https://polygonscan.com",
			NativeCurrency: "MATIC",
			IsTestnet:      false,
		},
		"sepolia": {
			Name:           "Sepolia Testnet",
			ChainID:        big.NewInt(11155111),
			ChainIDInt:     11155111,
			ExplorerURL:    "https://sepolia.etherscan.io",
			NativeCurrency: "ETH",
			IsTestnet:      true,
		},
		"base-sepolia": {
			Name:           "Base Sepolia Testnet",
			ChainID:        big.NewInt(84532),
			ChainIDInt:     84532,
			ExplorerURL:    "https://sepolia.basescan.org",
			NativeCurrency: "ETH",
			IsTestnet:      true,
		},
		"hardhat": {
			Name:           "Hardhat Local",
			ChainID:        big.NewInt(31337),
			ChainIDInt:     31337,
			NativeCurrency: "ETH",
			IsTestnet:      true,
		},
	}
}

// Merge adds user-defined chains from the config file to chains, replacing
// built-in entries with the same alias. ChainID is derived from ChainIDInt.
func Merge(chains, extra map[string]*ChainConfig) error {
	for alias, cfg := range extra {
		if cfg == nil || cfg.ChainIDInt <= 0 {
			return fmt.Errorf("chain %q: chain_id must be positive", alias)
		}
		c := *cfg
		c.ChainID = big.NewInt(c.ChainIDInt)
		if c.Name == "" {
			c.Name = alias
		}
		chains[strings.ToLower(alias)] = &c
	}
	return nil
}

// Aliases returns the aliases of chains in sorted order.
func Aliases(chains map[string]*ChainConfig) []string {
	out := make([]string, 0, len(chains))
	for alias := range chains {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// ByID finds the chain with the given id. The alias is returned alongside the
// config.
func ByID(chains map[string]*ChainConfig, id *big.Int) (string, *ChainConfig, bool) {
	if id == nil {
		return "", nil, false
	}
	for _, alias := range Aliases(chains) {
		if cfg := chains[alias]; cfg.ChainID.Cmp(id) == 0 {
			return alias, cfg, true
		}
	}
	return "", nil, false
}

// Lookup resolves ref, either an alias ("base") or a chain id in decimal or
// 0x-prefixed hex, to a chain id. Ids that are not in the table are still
// accepted; the returned config is then nil.
func Lookup(chains map[string]*ChainConfig, ref string) (*big.Int, *ChainConfig, error) {
	ref = strings.TrimSpace(ref)
	if cfg, ok := chains[strings.ToLower(ref)]; ok {
		return new(big.Int).Set(cfg.ChainID), cfg, nil
	}

	id, ok := parseChainID(ref)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownChain, ref)
	}
	_, cfg, _ := ByID(chains, id)
	return id, cfg, nil
}

func parseChainID(s string) (*big.Int, bool) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	if s == "" {
		return nil, false
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok || id.Sign() <= 0 || id.BitLen() > 256 {
		return nil, false
	}
	return id, true
}
