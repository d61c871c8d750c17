package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/typedsig/internal/chain"
	"github.com/yolodolo42/typedsig/internal/eip712"
	"github.com/yolodolo42/typedsig/internal/policy"
	"github.com/yolodolo42/typedsig/internal/testutil"
	"github.com/yolodolo42/typedsig/internal/wallet"
)

const (
	nftDigest     = "0x77915d20c811f39572463a234db9b776d518d07d9682a825be0d79752745a4c7"
	nftDomainSep  = "0x5b948be4ad551053dfd982dab35ee72c763027d8bbf16258dfdb54352370e199"
	nftStructHash = "0x94834b4eb73b0427160aebccd8456019d401539f428909b5241e5323b61aac2f"
	nftSignature  = "0xb9c658f86d985ad0502584c70ea520cf68523e4013786f83f216de093ef9467e453d27fe627278ab0c8425906843a706f66a9c3120b37e88ac722aa217a04fcf1b"
	mailDigest    = "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"
	aliceKey      = "0xa11ce"
	aliceAddress  = "0xe05fcC23807536bEe418f142D19fa0d21BB0cfF7"
)

func fixture(name string) string {
	return filepath.Join("..", "eip712", "testdata", name)
}

// run executes the command tree with an isolated home directory.
func run(t *testing.T, home, stdin string, args ...string) (string, string, error) {
	t.Helper()
	if home == "" {
		home = testutil.TempDir(t)
	}
	testutil.SetEnv(t, "HOME", home)

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func runJSON(t *testing.T, home, stdin string, out any, args ...string) {
	t.Helper()
	stdout, _, err := run(t, home, stdin, append(args, "--output", "json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), out), stdout)
}

// writeKeystore encrypts the 0xa11ce key with password and returns the file path.
func writeKeystore(t *testing.T, dir, password string) string {
	t.Helper()
	raw, err := wallet.ParsePrivateKey(aliceKey)
	require.NoError(t, err)
	key, err := crypto.ToECDSA(raw)
	require.NoError(t, err)

	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.ImportECDSA(key, password)
	require.NoError(t, err)
	return account.URL.Path
}

// Scenario is one CLI invocation and what its output must contain.
type Scenario struct {
	Name       string
	Args       []string
	Stdin      string
	ExpectSubs []string
	ExpectErr  bool
}

func TestScenarios(t *testing.T) {
	nftJSON, err := os.ReadFile(fixture("nft.json"))
	require.NoError(t, err)

	scenarios := []Scenario{
		{
			Name:       "hash prints every stage",
			Args:       []string{"hash", fixture("nft.json")},
			ExpectSubs: []string{"NFTData", "hardhat (31337)", nftDomainSep, nftStructHash, nftDigest},
		},
		{
			Name:       "hash reads yaml",
			Args:       []string{"hash", fixture("nft.yaml")},
			ExpectSubs: []string{nftDigest},
		},
		{
			Name:       "hash reads stdin",
			Args:       []string{"hash", "-"},
			Stdin:      string(nftJSON),
			ExpectSubs: []string{nftDigest},
		},
		{
			Name:       "hash explains the encoding",
			Args:       []string{"hash", "--explain", fixture("mail.json")},
			ExpectSubs: []string{mailDigest, "ethereum (1)", "contents", "0xb5aadf3154a261abdd9086fc627b61efca26ae5702701d05cd2305f7c52a2fc8"},
		},
		{
			Name:       "encode-type defaults to the primary type",
			Args:       []string{"encode-type", fixture("mail.json")},
			ExpectSubs: []string{"Mail(Person from,Person to,string contents)Person(string name,address wallet)", "0xa0cedeb2dc280ba39b857546d74f5549c3a1d7bdc2dd96bf881f76108e23dac2"},
		},
		{
			Name:       "encode-type of a referenced type",
			Args:       []string{"encode-type", "--type", "Person", fixture("mail.json")},
			ExpectSubs: []string{"Person(string name,address wallet)", "0xb9d8c78acf9b987311de6c7b45bb6a9c8e1bf361fa7fd3467a2163f994c79500"},
		},
		{
			Name:       "sign with a hex key",
			Args:       []string{"sign", "--key", aliceKey, fixture("nft.json")},
			ExpectSubs: []string{aliceAddress, nftDigest, nftSignature, "27"},
		},
		{
			Name:       "sign a raw digest",
			Args:       []string{"sign", "--digest", mailDigest, "--key", "0xc85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4"},
			ExpectSubs: []string{"0x4355c47d63924e8a72e509b65029052eb6c299d53a04e167c5775fd466751c9d07299936d304c153f6443dfa05f40ff007d72911b6f72307f996231605b915621c"},
		},
		{
			Name:       "verify against the expected address",
			Args:       []string{"verify", "--signature", nftSignature, "--address", aliceAddress, fixture("nft.json")},
			ExpectSubs: []string{aliceAddress, "signature is valid"},
		},
		{
			Name:       "verify a raw digest",
			Args:       []string{"verify", "--digest", nftDigest, "--signature", nftSignature},
			ExpectSubs: []string{aliceAddress},
		},
		{
			Name:       "verify reports another signer",
			Args:       []string{"verify", "--signature", nftSignature, "--address", "0x7FA9385bE102ac3EAc297483Dd6233D62b3e1496", fixture("nft.json")},
			ExpectSubs: []string{aliceAddress, "signer does not match"},
			ExpectErr:  true,
		},
		{
			Name:       "chains lists the table",
			Args:       []string{"chains"},
			ExpectSubs: []string{"ethereum", "base-sepolia", "31337", "testnet"},
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			stdout, _, err := run(t, "", sc.Stdin, sc.Args...)
			if sc.ExpectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, sub := range sc.ExpectSubs {
				assert.Contains(t, stdout, sub)
			}
		})
	}
}

func TestHashCommand_JSON(t *testing.T) {
	t.Run("emits a flat object", func(t *testing.T) {
		var got hashResult
		runJSON(t, "", "", &got, "hash", fixture("nft.json"))

		assert.Equal(t, "NFTData", got.PrimaryType)
		assert.Equal(t, "31337", got.ChainID)
		assert.Equal(t, nftDomainSep, got.DomainSeparator)
		assert.Equal(t, nftStructHash, got.StructHash)
		assert.Equal(t, nftDigest, got.Digest)
		assert.Empty(t, got.Fields)
	})

	t.Run("explains each member", func(t *testing.T) {
		var got hashResult
		runJSON(t, "", "", &got, "hash", "--explain", fixture("mail.json"))

		require.Len(t, got.Fields, 3)
		assert.Equal(t, fieldResult{
			Name:    "contents",
			Type:    "string",
			Encoded: "0xb5aadf3154a261abdd9086fc627b61efca26ae5702701d05cd2305f7c52a2fc8",
		}, got.Fields[2])
		assert.Equal(t, "from", got.Fields[0].Name)
		assert.Equal(t, "Person", got.Fields[0].Type)
	})

	t.Run("matches across formats", func(t *testing.T) {
		for _, name := range []string{"nft.json", "nft.yaml"} {
			var got hashResult
			runJSON(t, "", "", &got, "hash", fixture(name))
			assert.Equal(t, nftDigest, got.Digest, name)
		}
	})
}

func TestHashCommand_ChainOverride(t *testing.T) {
	t.Run("same chain keeps the digest", func(t *testing.T) {
		for _, ref := range []string{"hardhat", "31337", "0x7a69"} {
			var got hashResult
			runJSON(t, "", "", &got, "hash", "--chain", ref, fixture("nft.json"))
			assert.Equal(t, nftDigest, got.Digest, ref)
		}
	})

	t.Run("another chain changes the digest", func(t *testing.T) {
		var got hashResult
		runJSON(t, "", "", &got, "hash", "--chain", "base", fixture("nft.json"))
		assert.Equal(t, "8453", got.ChainID)
		assert.Equal(t, "0x8085fa0b1b274b6873063764f74d249b123e30cbb705fdc76a15ffac603236b0", got.Digest)
	})

	t.Run("unknown alias", func(t *testing.T) {
		_, _, err := run(t, "", "", "hash", "--chain", "nowhere", fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, chain.ErrUnknownChain)
	})

	t.Run("logs go to stderr", func(t *testing.T) {
		stdout, stderr, err := run(t, "", "", "hash", "--chain", "base", "--log-level", "debug", "-o", "json", fixture("nft.json"))
		require.NoError(t, err)
		assert.Contains(t, stderr, "overriding domain chain id")

		var got hashResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	})
}

func TestHashCommand_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := run(t, "", "", "hash", filepath.Join(testutil.TempDir(t), "missing.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid document", func(t *testing.T) {
		doc := `{"types":{"A":[{"name":"b","type":"B"}]},"primaryType":"A",` +
			`"domain":{"name":"x","version":"1","chainId":1,"verifyingContract":"0x0000000000000000000000000000000000000000"},` +
			`"message":{"b":{}}}`
		_, _, err := run(t, "", doc, "hash", "-")
		require.Error(t, err)
		assert.ErrorIs(t, err, eip712.ErrUnknownType)
	})

	t.Run("requires a file", func(t *testing.T) {
		_, _, err := run(t, "", "", "hash")
		assert.Error(t, err)
	})

	t.Run("rejects an unknown output format", func(t *testing.T) {
		_, _, err := run(t, "", "", "hash", "-o", "xml", fixture("nft.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})
}

func TestEncodeTypeCommand(t *testing.T) {
	t.Run("lists dependencies", func(t *testing.T) {
		var got encodeTypeResult
		runJSON(t, "", "", &got, "encode-type", fixture("mail.json"))

		assert.Equal(t, "Mail", got.Type)
		assert.Equal(t, "0xa0cedeb2dc280ba39b857546d74f5549c3a1d7bdc2dd96bf881f76108e23dac2", got.TypeHash)
		assert.Equal(t, []string{"Person"}, got.Dependencies)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, _, err := run(t, "", "", "encode-type", "--type", "Nope", fixture("mail.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, eip712.ErrUnknownType)
	})
}

func TestSignCommand(t *testing.T) {
	t.Run("emits r, s and v", func(t *testing.T) {
		var got signResult
		runJSON(t, "", "", &got, "sign", "--key", aliceKey, fixture("nft.json"))

		assert.Equal(t, aliceAddress, got.Address)
		assert.Equal(t, nftDigest, got.Digest)
		assert.Equal(t, nftSignature, got.Signature)
		assert.Equal(t, nftSignature[:66], got.R)
		assert.Equal(t, "0x"+nftSignature[66:130], got.S)
		assert.Equal(t, 27, got.V)
	})

	t.Run("signs with a key file", func(t *testing.T) {
		keyFile := testutil.WriteFile(t, testutil.TempDir(t), "alice.key", aliceKey+"\n")

		var got signResult
		runJSON(t, "", "", &got, "sign", "--key-file", keyFile, fixture("nft.json"))
		assert.Equal(t, nftSignature, got.Signature)
	})

	t.Run("signs with a keystore and password file", func(t *testing.T) {
		dir := testutil.TempDir(t)
		ks := writeKeystore(t, dir, "testpassword")
		pw := testutil.WriteFile(t, dir, "password.txt", "testpassword\n")

		var got signResult
		runJSON(t, "", "", &got, "sign", "--keystore", ks, "--password-file", pw, fixture("nft.json"))
		assert.Equal(t, nftSignature, got.Signature)
	})

	t.Run("reads the keystore password from stdin", func(t *testing.T) {
		ks := writeKeystore(t, testutil.TempDir(t), "testpassword")

		var got signResult
		runJSON(t, "", "testpassword\n", &got, "sign", "--keystore", ks, fixture("nft.json"))
		assert.Equal(t, nftSignature, got.Signature)
	})

	t.Run("wrong keystore password", func(t *testing.T) {
		ks := writeKeystore(t, testutil.TempDir(t), "testpassword")

		_, _, err := run(t, "", "nope\n", "sign", "--keystore", ks, fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, keystore.ErrDecrypt)
	})

	t.Run("refuses to read document and password from stdin", func(t *testing.T) {
		ks := writeKeystore(t, testutil.TempDir(t), "testpassword")
		nftJSON, err := os.ReadFile(fixture("nft.json"))
		require.NoError(t, err)

		_, _, err = run(t, "", string(nftJSON), "sign", "--keystore", ks, "-")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--password-file")
	})

	t.Run("requires a key", func(t *testing.T) {
		_, _, err := run(t, "", "", "sign", fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errNoKey)
	})

	t.Run("rejects an invalid key", func(t *testing.T) {
		_, _, err := run(t, "", "", "sign", "--key", "0x0", fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, wallet.ErrInvalidPrivateKey)
	})

	t.Run("key sources are exclusive", func(t *testing.T) {
		keyFile := testutil.WriteFile(t, testutil.TempDir(t), "alice.key", aliceKey)
		_, _, err := run(t, "", "", "sign", "--key", aliceKey, "--key-file", keyFile, fixture("nft.json"))
		assert.Error(t, err)
	})

	t.Run("document and digest are exclusive", func(t *testing.T) {
		_, _, err := run(t, "", "", "sign", "--key", aliceKey, "--digest", nftDigest, fixture("nft.json"))
		assert.Error(t, err)
	})

	t.Run("needs something to sign", func(t *testing.T) {
		_, _, err := run(t, "", "", "sign", "--key", aliceKey)
		assert.Error(t, err)
	})

	t.Run("rejects a short digest", func(t *testing.T) {
		_, _, err := run(t, "", "", "sign", "--key", aliceKey, "--digest", "0x1234")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid digest")
	})
}

func TestVerifyCommand(t *testing.T) {
	t.Run("reports the recovered signer", func(t *testing.T) {
		var got verifyResult
		runJSON(t, "", "", &got, "verify", "--signature", nftSignature, fixture("nft.json"))

		assert.Equal(t, nftDigest, got.Digest)
		assert.Equal(t, aliceAddress, got.Signer)
		assert.Empty(t, got.Address)
		assert.True(t, got.Valid)
	})

	t.Run("address mismatch", func(t *testing.T) {
		stdout, _, err := run(t, "", "", "verify", "-o", "json",
			"--signature", nftSignature, "--address", "0x7FA9385bE102ac3EAc297483Dd6233D62b3e1496", fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errSignerMismatch)

		var got verifyResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		assert.False(t, got.Valid)
		assert.Equal(t, aliceAddress, got.Signer)
	})

	t.Run("signature from another document", func(t *testing.T) {
		var got verifyResult
		runJSON(t, "", "", &got, "verify", "--signature", nftSignature, fixture("mail.json"))
		assert.NotEqual(t, aliceAddress, got.Signer)
	})

	t.Run("requires a signature", func(t *testing.T) {
		_, _, err := run(t, "", "", "verify", fixture("nft.json"))
		assert.Error(t, err)
	})

	t.Run("rejects a malformed signature", func(t *testing.T) {
		_, _, err := run(t, "", "", "verify", "--signature", "0x1234", fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, wallet.ErrInvalidSignature)
	})

	t.Run("rejects a malformed address", func(t *testing.T) {
		_, _, err := run(t, "", "", "verify", "--signature", nftSignature, "--address", "alice", fixture("nft.json"))
		assert.Error(t, err)
	})
}

func TestChainsCommand(t *testing.T) {
	var got []chainResult
	runJSON(t, "", "", &got, "chains")

	require.Len(t, got, len(chain.DefaultChains()))
	byAlias := make(map[string]chainResult, len(got))
	for _, c := range got {
		byAlias[c.Alias] = c
	}
	assert.Equal(t, "31337", byAlias["hardhat"].ChainID)
	assert.True(t, byAlias["hardhat"].Testnet)
	assert.Equal(t, "https://basescan.org", byAlias["base"].ExplorerURL)
	assert.Equal(t, "arbitrum", got[0].Alias)
}

func TestConfigFile(t *testing.T) {
	home := testutil.TempDir(t)
	ks := writeKeystore(t, testutil.TempDir(t), "testpassword")
	pw := testutil.WriteFile(t, home, "password.txt", "testpassword")
	testutil.WriteFile(t, home, filepath.Join(".typedsig", "config.yaml"), `output: json
keystore: "`+ks+`"
chains:
  devnet:
    name: Devnet
    chain_id: 1337
`)

	t.Run("output and keystore come from config", func(t *testing.T) {
		stdout, _, err := run(t, home, "", "sign", "--password-file", pw, fixture("nft.json"))
		require.NoError(t, err)

		var got signResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &got), stdout)
		assert.Equal(t, nftSignature, got.Signature)
	})

	t.Run("a key flag wins over the configured keystore", func(t *testing.T) {
		stdout, _, err := run(t, home, "", "sign", "--key", "0xc85ef7d79691fe79573b1a7064c19c1a9819ebdbd1faaab1a8ec92344438aaf4", fixture("nft.json"))
		require.NoError(t, err)

		var got signResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &got), stdout)
		assert.NotEqual(t, aliceAddress, got.Address)
	})

	t.Run("configured chains are accepted by --chain", func(t *testing.T) {
		stdout, _, err := run(t, home, "", "hash", "--chain", "devnet", fixture("nft.json"))
		require.NoError(t, err)

		var got hashResult
		require.NoError(t, json.Unmarshal([]byte(stdout), &got), stdout)
		assert.Equal(t, "1337", got.ChainID)
		assert.Equal(t, "0x5bcf5e58bad98566c1ec2af26adad03f908c64e0078929ff0136bc06c111c924", got.Digest)
	})

	t.Run("flags override the config file", func(t *testing.T) {
		stdout, _, err := run(t, home, "", "hash", "-o", "text", fixture("nft.json"))
		require.NoError(t, err)
		assert.Contains(t, stdout, "domain separator")
	})

	t.Run("explicit config must exist", func(t *testing.T) {
		_, _, err := run(t, home, "", "--config", filepath.Join(home, "missing.yaml"), "chains")
		assert.Error(t, err)
	})

	t.Run("invalid chain entry", func(t *testing.T) {
		bad := testutil.WriteFile(t, testutil.TempDir(t), "bad.yaml", "chains:\n  broken:\n    name: Broken\n")
		_, _, err := run(t, home, "", "--config", bad, "chains")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chain_id must be positive")
	})
}

func TestSigningPolicy(t *testing.T) {
	home := testutil.TempDir(t)
	testutil.WriteFile(t, home, filepath.Join(".typedsig", "config.yaml"), `policy:
  deny_contracts:
    - "0x037eDa3aDB1198021A9b2e88C22B464fD38db3f3"
  allow_chains: [ethereum, hardhat]
  deny_raw_digest: true
`)

	t.Run("denied contract", func(t *testing.T) {
		_, _, err := run(t, home, "", "sign", "--key", aliceKey, fixture("nft.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, policy.ErrDenied)
	})

	t.Run("allowed domain", func(t *testing.T) {
		_, _, err := run(t, home, "", "sign", "--key", aliceKey, fixture("mail.json"))
		assert.NoError(t, err)
	})

	t.Run("chain outside the allowlist", func(t *testing.T) {
		_, _, err := run(t, home, "", "sign", "--key", aliceKey, "--chain", "base", fixture("mail.json"))
		assert.ErrorIs(t, err, policy.ErrDenied)
	})

	t.Run("raw digest", func(t *testing.T) {
		_, _, err := run(t, home, "", "sign", "--key", aliceKey, "--digest", nftDigest)
		assert.ErrorIs(t, err, policy.ErrDenied)
	})

	t.Run("hashing is not restricted", func(t *testing.T) {
		_, _, err := run(t, home, "", "hash", fixture("nft.json"))
		assert.NoError(t, err)
	})
}
