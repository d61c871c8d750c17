package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/typedsig/internal/chain"
	"github.com/yolodolo42/typedsig/internal/logger"
	"github.com/yolodolo42/typedsig/internal/policy"
	"go.uber.org/zap"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	v       *viper.Viper
	chains  map[string]*chain.ChainConfig
	policy  *policy.Policy
}

func Execute() error {
	err := NewRootCmd().Execute()
	_ = logger.Sync()
	return err
}

// NewRootCmd builds the typedsig command tree with its own configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "typedsig",
		Short: "Hash, sign and verify EIP-712 typed data",
		Long: `typedsig computes EIP-712 digests of typed structured data and signs
them with a secp256k1 key.

Documents are read as JSON or YAML ("-" reads stdin). Signing always shows
the digest and asks for confirmation when run interactively.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.typedsig/config.yaml)")
	flags.StringP("output", "o", outputText, "Output format: text or json")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.String("chain", "", "Bind the domain to another chain (alias or chain id)")
	_ = a.v.BindPFlag("output", flags.Lookup("output"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("chain", flags.Lookup("chain"))

	rootCmd.AddCommand(
		newHashCmd(a),
		newEncodeTypeCmd(a),
		newSignCmd(a),
		newVerifyCmd(a),
		newChainsCmd(a),
	)
	return rootCmd
}

func (a *app) initConfig(cmd *cobra.Command) error {
	v := a.v
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".typedsig"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetDefault("output", outputText)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix("TYPEDSIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// The default config file is optional; an explicit one is not.
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Init(logger.Config{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: cmd.ErrOrStderr(),
	})
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", zap.String("path", used))
	}

	switch v.GetString("output") {
	case outputText, outputJSON:
	default:
		return fmt.Errorf("unsupported output format %q (use text or json)", v.GetString("output"))
	}

	a.chains = chain.DefaultChains()
	var extra map[string]*chain.ChainConfig
	if err := v.UnmarshalKey("chains", &extra); err != nil {
		return fmt.Errorf("invalid chains config: %w", err)
	}
	if err := chain.Merge(a.chains, extra); err != nil {
		return fmt.Errorf("invalid chains config: %w", err)
	}

	var pc policy.Config
	if err := v.UnmarshalKey("policy", &pc); err != nil {
		return fmt.Errorf("invalid policy config: %w", err)
	}
	p, err := pc.Build(a.chains)
	if err != nil {
		return err
	}
	a.policy = p
	return nil
}

func (a *app) jsonOutput() bool {
	return a.v.GetString("output") == outputJSON
}
