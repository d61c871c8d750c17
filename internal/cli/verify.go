package cli

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/ui"
	"github.com/yolodolo42/typedsig/internal/wallet"
)

var errSignerMismatch = errors.New("signature was not produced by the expected address")

type verifyResult struct {
	Digest  string `json:"digest"`
	Signer  string `json:"signer"`
	Address string `json:"address,omitempty"`
	Valid   bool   `json:"valid"`
}

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [FILE]",
		Short: "Recover the signer of a signature",
		Long: `Recover the address that signed a document (or --digest) and, with
--address, check it against the expected signer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.String("digest", "", "Verify against this 32-byte hex digest instead of a document")
	flags.String("signature", "", "65-byte hex signature (r || s || v)")
	flags.String("address", "", "Expected signer address")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	digestHex, _ := cmd.Flags().GetString("digest")
	sigHex, _ := cmd.Flags().GetString("signature")
	addressHex, _ := cmd.Flags().GetString("address")

	var digest common.Hash
	switch {
	case len(args) == 1 && digestHex != "":
		return errors.New("pass either a document or --digest, not both")
	case len(args) == 1:
		td, err := a.loadDocument(cmd, args[0])
		if err != nil {
			return err
		}
		digest = td.Hash()
	case digestHex != "":
		d, err := parseDigest(digestHex)
		if err != nil {
			return err
		}
		digest = d
	default:
		return errors.New("nothing to verify: pass a document or --digest")
	}

	if addressHex != "" && !common.IsHexAddress(addressHex) {
		return fmt.Errorf("invalid address %q", addressHex)
	}

	sig, err := wallet.ParseSignatureHex(sigHex)
	if err != nil {
		return err
	}
	signer, err := wallet.RecoverAddress(digest, sig)
	if err != nil {
		return err
	}

	result := verifyResult{
		Digest: digest.Hex(),
		Signer: signer.Hex(),
		Valid:  true,
	}
	pairs := []string{"digest", result.Digest, "signer", result.Signer}
	if addressHex != "" {
		expected := common.HexToAddress(addressHex)
		result.Address = expected.Hex()
		result.Valid = expected == signer
		pairs = append(pairs, "expected", result.Address)
	}

	if err := a.render(cmd, result, ui.KVBlock("", pairs...)); err != nil {
		return err
	}
	if !result.Valid {
		if !a.jsonOutput() {
			fmt.Fprintln(cmd.OutOrStdout(), ui.ErrorStyle.Render(ui.SymbolCross+" signer does not match"))
		}
		return errSignerMismatch
	}
	if !a.jsonOutput() && addressHex != "" {
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render(ui.SymbolCheck+" signature is valid"))
	}
	return nil
}
