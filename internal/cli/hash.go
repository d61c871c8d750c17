package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/eip712"
	"github.com/yolodolo42/typedsig/internal/ui"
)

type hashResult struct {
	PrimaryType     string        `json:"primaryType"`
	ChainID         string        `json:"chainId"`
	DomainSeparator string        `json:"domainSeparator"`
	StructHash      string        `json:"structHash"`
	Digest          string        `json:"digest"`
	Fields          []fieldResult `json:"fields,omitempty"`
}

type fieldResult struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Encoded string `json:"encoded"`
}

func newHashCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash FILE",
		Short: "Compute the EIP-712 digest of a document",
		Long: `Compute the domain separator, the primary struct hash and the signing
digest of a typed-data document. Use --explain to see the 32-byte word each
member of the primary type encodes to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHash(cmd, args[0])
		},
	}
	cmd.Flags().Bool("explain", false, "Show the encoding of each member of the primary type")
	return cmd
}

func (a *app) runHash(cmd *cobra.Command, path string) error {
	explain, _ := cmd.Flags().GetBool("explain")

	td, err := a.loadDocument(cmd, path)
	if err != nil {
		return err
	}

	domainSeparator, structHash, digest := td.HashParts()
	result := hashResult{
		PrimaryType:     td.PrimaryType,
		ChainID:         td.Domain.ChainID.String(),
		DomainSeparator: domainSeparator.Hex(),
		StructHash:      structHash.Hex(),
		Digest:          digest.Hex(),
	}
	blocks := []ui.Block{
		ui.KVBlock("",
			"primary type", td.PrimaryType,
			"chain", a.chainLabel(td),
			"domain separator", result.DomainSeparator,
			"struct hash", result.StructHash,
			"digest", result.Digest,
		),
	}

	if explain {
		fields, err := td.Registry().EncodeFields(td.PrimaryType, td.Message)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		result.Fields = explainFields(fields)

		rows := make([][]string, 0, len(result.Fields))
		for _, f := range result.Fields {
			rows = append(rows, []string{f.Name, f.Type, f.Encoded})
		}
		blocks = append(blocks, ui.TableBlock(td.PrimaryType, []string{"field", "type", "encoded"}, rows))
	}

	return a.render(cmd, result, blocks...)
}

func explainFields(fields []eip712.EncodedField) []fieldResult {
	out := make([]fieldResult, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldResult{
			Name:    f.Name,
			Type:    f.Type,
			Encoded: hexutil.Encode(f.Word[:]),
		})
	}
	return out
}
