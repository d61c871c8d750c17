package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/ui"
)

type encodeTypeResult struct {
	Type         string   `json:"type"`
	EncodeType   string   `json:"encodeType"`
	TypeHash     string   `json:"typeHash"`
	Dependencies []string `json:"dependencies"`
}

func newEncodeTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode-type FILE",
		Short: "Print the canonical type string and type hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncodeType(cmd, args[0])
		},
	}
	cmd.Flags().String("type", "", "Struct type to encode (default is the primary type)")
	return cmd
}

func (a *app) runEncodeType(cmd *cobra.Command, path string) error {
	name, _ := cmd.Flags().GetString("type")

	td, err := a.loadDocument(cmd, path)
	if err != nil {
		return err
	}
	if name == "" {
		name = td.PrimaryType
	}

	registry := td.Registry()
	encoded, err := registry.EncodeType(name)
	if err != nil {
		return err
	}
	typeHash, err := registry.TypeHash(name)
	if err != nil {
		return err
	}
	deps, err := registry.Dependencies(name)
	if err != nil {
		return err
	}
	// The first entry is the type itself.
	deps = deps[1:]

	result := encodeTypeResult{
		Type:         name,
		EncodeType:   encoded,
		TypeHash:     typeHash.Hex(),
		Dependencies: deps,
	}
	return a.render(cmd, result, ui.KVBlock("",
		"type", name,
		"encoded", encoded,
		"type hash", result.TypeHash,
		"dependencies", strings.Join(deps, ", "),
	))
}
