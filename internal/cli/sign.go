package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/logger"
	"github.com/yolodolo42/typedsig/internal/ui"
	"github.com/yolodolo42/typedsig/internal/wallet"
	"go.uber.org/zap"
)

var errNoKey = errors.New("no signing key: use --key, --key-file or --keystore")

type signResult struct {
	Address   string `json:"address"`
	Digest    string `json:"digest"`
	Signature string `json:"signature"`
	R         string `json:"r"`
	S         string `json:"s"`
	V         int    `json:"v"`
}

func newSignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [FILE]",
		Short: "Sign a typed-data document or a raw digest",
		Long: `Sign the EIP-712 digest of a document with a secp256k1 key. The signature
is r || s || v with v in {27, 28}.

The key comes from --key, --key-file or an encrypted keystore (--keystore or
the keystore config setting). Interactive runs show the digest and ask for
confirmation unless --yes is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSign(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.String("digest", "", "Sign this 32-byte hex digest instead of a document")
	flags.String("key", "", "Private key (hex, with or without 0x prefix)")
	flags.String("key-file", "", "File containing a hex private key")
	flags.String("keystore", "", "Encrypted keystore file")
	flags.String("password-file", "", "File containing the keystore password")
	flags.BoolP("yes", "y", false, "Sign without asking for confirmation")
	cmd.MarkFlagsMutuallyExclusive("key", "key-file", "keystore")
	_ = a.v.BindPFlag("keystore", flags.Lookup("keystore"))
	return cmd
}

func (a *app) runSign(cmd *cobra.Command, args []string) error {
	digestHex, _ := cmd.Flags().GetString("digest")
	yes, _ := cmd.Flags().GetBool("yes")

	var (
		digest  common.Hash
		details []string
	)
	switch {
	case len(args) == 1 && digestHex != "":
		return errors.New("pass either a document or --digest, not both")
	case len(args) == 1:
		td, err := a.loadDocument(cmd, args[0])
		if err != nil {
			return err
		}
		if err := a.policy.Validate(td.Domain); err != nil {
			return err
		}
		digest = td.Hash()
		details = []string{"primary type", td.PrimaryType, "domain", td.Domain.Name, "chain", a.chainLabel(td)}
	case digestHex != "":
		if err := a.policy.ValidateDigest(); err != nil {
			return err
		}
		d, err := parseDigest(digestHex)
		if err != nil {
			return err
		}
		digest = d
		details = []string{"input", "raw digest"}
	default:
		return errors.New("nothing to sign: pass a document or --digest")
	}

	signer, err := a.loadSigner(cmd, len(args) == 1 && args[0] == stdinPath)
	if err != nil {
		return err
	}
	defer signer.Lock()

	if !yes && isTerminal(cmd.InOrStdin()) {
		details = append([]string{"signer", signer.Address().Hex()}, details...)
		details = append(details, "digest", ui.HashStyle.Render(digest.Hex()))
		ok, err := ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			ui.WarningStyle.Render("Sign this message?"), ui.Render(0, ui.KVBlock("", details...)))
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return ui.ErrCancelled
		}
	}

	sig, err := signer.SignDigest(digest)
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}
	logger.Info("signed digest",
		zap.String("signer", signer.Address().Hex()),
		zap.String("digest", digest.Hex()))

	result := signResult{
		Address:   signer.Address().Hex(),
		Digest:    digest.Hex(),
		Signature: sig.Hex(),
		R:         hexutil.Encode(sig.R[:]),
		S:         hexutil.Encode(sig.S[:]),
		V:         int(sig.V),
	}
	return a.render(cmd, result, ui.KVBlock("",
		"signer", result.Address,
		"digest", result.Digest,
		"signature", result.Signature,
		"r", result.R,
		"s", result.S,
		"v", fmt.Sprint(result.V),
	))
}

// loadSigner builds a signer from the first configured key source: --key,
// --key-file, then the keystore flag or config setting.
func (a *app) loadSigner(cmd *cobra.Command, docFromStdin bool) (*wallet.KeySigner, error) {
	flags := cmd.Flags()

	if keyHex, _ := flags.GetString("key"); keyHex != "" {
		key, err := wallet.ParsePrivateKey(keyHex)
		if err != nil {
			return nil, err
		}
		defer clear(key)
		return wallet.NewKeySigner(key)
	}

	if keyFile, _ := flags.GetString("key-file"); keyFile != "" {
		return wallet.LoadKeyFile(keyFile)
	}

	if path := a.v.GetString("keystore"); path != "" {
		password, err := a.keystorePassword(cmd, docFromStdin)
		if err != nil {
			return nil, err
		}
		logger.Debug("decrypting keystore", zap.String("path", path))
		return wallet.LoadKeystore(path, password)
	}

	return nil, errNoKey
}

func (a *app) keystorePassword(cmd *cobra.Command, docFromStdin bool) (string, error) {
	if path, _ := cmd.Flags().GetString("password-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		return ui.ReadPassword(in, cmd.ErrOrStderr(), "Keystore password")
	}
	if docFromStdin {
		return "", errors.New("keystore password required: use --password-file when the document is read from stdin")
	}
	password, err := readLine(in)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}
