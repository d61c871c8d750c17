package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/typedsig/internal/chain"
	"github.com/yolodolo42/typedsig/internal/eip712"
	"github.com/yolodolo42/typedsig/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const stdinPath = "-"

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdinPath {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// loadDocument reads and validates a typed-data document, applying the
// --chain override when one is set.
func (a *app) loadDocument(cmd *cobra.Command, path string) (*eip712.TypedData, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}

	var td *eip712.TypedData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		td, err = eip712.ParseYAML(data)
	default:
		td, err = eip712.ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid typed data: %w", err)
	}

	ref := a.v.GetString("chain")
	if ref == "" {
		return td, nil
	}
	chainID, _, err := chain.Lookup(a.chains, ref)
	if err != nil {
		return nil, err
	}
	logger.Debug("overriding domain chain id",
		zap.String("from", td.Domain.ChainID.String()),
		zap.String("to", chainID.String()))
	return td.WithChainID(chainID)
}

func parseDigest(s string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid digest: %w", err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid digest: expected %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// readLine reads a single line from r without the line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of w when it is a terminal, 0 otherwise.
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// chainLabel names a chain id using the chain table, e.g. "base (8453)".
func (a *app) chainLabel(td *eip712.TypedData) string {
	id := td.Domain.ChainID
	if alias, _, ok := chain.ByID(a.chains, id); ok {
		return fmt.Sprintf("%s (%s)", alias, id)
	}
	return id.String()
}
