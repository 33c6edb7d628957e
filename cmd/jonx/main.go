package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jonx/pkg/config"
	"github.com/ajitpratap0/jonx/pkg/container"
	"github.com/ajitpratap0/jonx/pkg/logger"
)

var version = "0.1.0"

// app carries the state shared by every command once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	codec  *container.Codec
	logger *zap.Logger
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "jonx",
		Short: "JONX - columnar, compressed JSON containers",
		Long: `JONX stores a JSON array of records column by column, with each column
packed by its detected type and compressed with zstd.

Examples:
  jonx encode data.json -o data.jonx
  jonx decode data.jonx -o data.json
  jonx info data.jonx
  jonx validate data.jonx
  jonx query data.jonx price --min --use-index`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Int("workers", 0, "Columns decoded in parallel (default from config)")

	a.v.SetEnvPrefix("JONX")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newInfoCmd(a),
		newValidateCmd(a),
		newQueryCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "JONX v%s\n", version)
				fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
				fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			},
		},
	)
	return root
}

// setup resolves the configuration: file (or defaults), then flags and
// JONX_* environment variables on top.
func (a *app) setup() error {
	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if lvl := a.v.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if w := a.v.GetInt("workers"); w > 0 {
		cfg.Codec.DecodeWorkers = w
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	a.logger = logger.With(zap.String("component", "jonx-cli"))

	c, err := container.NewCodec(cfg.Codec, a.logger)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.codec = c
	return nil
}
