package cli

import (
	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/chain"
	"github.com/yolodolo42/typedsig/internal/ui"
)

type chainResult struct {
	Alias          string `json:"alias"`
	Name           string `json:"name"`
	ChainID        string `json:"chainId"`
	NativeCurrency string `json:"nativeCurrency,omitempty"`
	ExplorerURL    string `json:"explorerUrl,omitempty"`
	Testnet        bool   `json:"testnet"`
}

func newChainsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List the chains accepted by --chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChains(cmd)
		},
	}
}

func (a *app) runChains(cmd *cobra.Command) error {
	aliases := chain.Aliases(a.chains)
	results := make([]chainResult, 0, len(aliases))
	rows := make([][]string, 0, len(aliases))
	for _, alias := range aliases {
		cfg := a.chains[alias]
		results = append(results, chainResult{
			Alias:          alias,
			Name:           cfg.Name,
			ChainID:        cfg.ChainID.String(),
			NativeCurrency: cfg.NativeCurrency,
			ExplorerURL:    cfg.ExplorerURL,
			Testnet:        cfg.IsTestnet,
		})

		network := "mainnet"
		if cfg.IsTestnet {
			network = "testnet"
		}
		rows = append(rows, []string{alias, cfg.Name, cfg.ChainID.String(), cfg.NativeCurrency, network})
	}

	return a.render(cmd, results,
		ui.TableBlock("", []string{"alias", "name", "chain id", "currency", "network"}, rows))
}
