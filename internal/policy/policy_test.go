package policy

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/typedsig/internal/chain"
	"github.com/yolodolo42/typedsig/internal/eip712"
)

var (
	nftContract   = common.HexToAddress("0x037eDa3aDB1198021A9b2e88C22B464fD38db3f3")
	otherContract = common.HexToAddress("0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC")
)

func domain(chainID int64, contract common.Address) eip712.Domain {
	return eip712.Domain{
		Name:              "AionRisingNFTs",
		Version:           "0.0.1",
		ChainID:           big.NewInt(chainID),
		VerifyingContract: contract,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		domain  eip712.Domain
		wantErr bool
	}{
		{
			name:   "empty policy allows everything",
			policy: Policy{},
			domain: domain(1, nftContract),
		},
		{
			name:    "denied contract",
			policy:  Policy{DenyContracts: []common.Address{nftContract}},
			domain:  domain(1, nftContract),
			wantErr: true,
		},
		{
			name:   "deny list does not affect other contracts",
			policy: Policy{DenyContracts: []common.Address{nftContract}},
			domain: domain(1, otherContract),
		},
		{
			name:   "allowlisted contract",
			policy: Policy{AllowContracts: []common.Address{nftContract}},
			domain: domain(1, nftContract),
		},
		{
			name:    "contract not in allowlist",
			policy:  Policy{AllowContracts: []common.Address{nftContract}},
			domain:  domain(1, otherContract),
			wantErr: true,
		},
		{
			name:    "deny wins over allow",
			policy:  Policy{AllowContracts: []common.Address{nftContract}, DenyContracts: []common.Address{nftContract}},
			domain:  domain(1, nftContract),
			wantErr: true,
		},
		{
			name:   "allowlisted chain",
			policy: Policy{AllowChains: []*big.Int{big.NewInt(31337)}},
			domain: domain(31337, nftContract),
		},
		{
			name:    "chain not in allowlist",
			policy:  Policy{AllowChains: []*big.Int{big.NewInt(31337)}},
			domain:  domain(1, nftContract),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate(tt.domain)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDigest(t *testing.T) {
	assert.NoError(t, (&Policy{}).ValidateDigest())
	assert.ErrorIs(t, (&Policy{DenyRawDigest: true}).ValidateDigest(), ErrDenied)
}

func TestConfig_Build(t *testing.T) {
	chains := chain.DefaultChains()

	t.Run("resolves chains and addresses", func(t *testing.T) {
		p, err := Config{
			AllowContracts: []string{nftContract.Hex()},
			DenyContracts:  []string{"0xcccccccccccccccccccccccccccccccccccccccc"},
			AllowChains:    []string{"hardhat", "8453", "0x1"},
			DenyRawDigest:  true,
		}.Build(chains)
		require.NoError(t, err)

		assert.Equal(t, []common.Address{nftContract}, p.AllowContracts)
		assert.Equal(t, []common.Address{otherContract}, p.DenyContracts)
		require.Len(t, p.AllowChains, 3)
		assert.Equal(t, int64(31337), p.AllowChains[0].Int64())
		assert.Equal(t, int64(8453), p.AllowChains[1].Int64())
		assert.Equal(t, int64(1), p.AllowChains[2].Int64())
		assert.True(t, p.DenyRawDigest)
	})

	t.Run("empty config", func(t *testing.T) {
		p, err := Config{}.Build(chains)
		require.NoError(t, err)
		assert.NoError(t, p.Validate(domain(1, nftContract)))
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := Config{DenyContracts: []string{"0x1234"}}.Build(chains)
		assert.Error(t, err)
	})

	t.Run("unknown chain", func(t *testing.T) {
		_, err := Config{AllowChains: []string{"nowhere"}}.Build(chains)
		require.Error(t, err)
		assert.ErrorIs(t, err, chain.ErrUnknownChain)
	})
}
