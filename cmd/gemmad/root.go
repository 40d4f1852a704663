package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gemmad/internal/config"
	"gemmad/internal/logging"
)

// cliOptions holds flag values; they win over the config file and env.
type cliOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	mode       string
	addr       string
	modelFile  string
	internal   string
	external   string
	rulesFile  string
	preload    bool
	workers    int
	chunks     int
	intervalMS int

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:   "gemmad",
		Short: "On-device model bridge over a method channel",
		Long: `gemmad serves one method channel over HTTP and WebSocket.

In engine mode the channel drives a local model session (initializeModel,
generateText, generateTextStream, dispose). In demo mode it answers from a
static keyword table and never loads a model (generateText, isModelReady).

Examples:
  gemmad serve --mode engine --preload
  gemmad serve --mode demo --addr :9090
  gemmad locate
  gemmad ask --mode demo "explain photosynthesis"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: trace|debug|info|warn|error|off")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: console|json")
	pf.StringVar(&opts.mode, "mode", "", "handler mode: engine|demo")
	pf.StringVar(&opts.modelFile, "model-file", "", "model bundle file name")
	pf.StringVar(&opts.internal, "internal-dir", "", "app-private directory searched first")
	pf.StringVar(&opts.external, "external-paths", "", "comma-separated fallback model paths")
	pf.StringVar(&opts.rulesFile, "rules", "", "YAML file replacing the built-in demo answers")
	pf.IntVar(&opts.workers, "workers", 0, "concurrent engine calls")
	pf.IntVar(&opts.chunks, "stream-chunks", 0, "word groups replayed by generateTextStream")
	pf.IntVar(&opts.intervalMS, "chunk-interval-ms", 0, "delay between replayed chunks")

	root.AddCommand(newServeCmd(opts), newLocateCmd(opts), newAskCmd(opts))
	return root
}

// resolve builds the effective config: defaults, file, env, then flags.
func (o *cliOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Resolve(o.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("log-level", func() { cfg.LogLevel = o.logLevel })
	set("log-format", func() { cfg.LogFormat = o.logFormat })
	set("mode", func() { cfg.Mode = o.mode })
	set("addr", func() { cfg.Addr = o.addr })
	set("model-file", func() { cfg.ModelFile = o.modelFile })
	set("internal-dir", func() { cfg.InternalDir = o.internal })
	set("external-paths", func() { cfg.ExternalPaths = config.SplitCSV(o.external) })
	set("rules", func() { cfg.RulesFile = o.rulesFile })
	set("preload", func() { cfg.PreloadModel = o.preload })
	set("workers", func() { cfg.Workers = o.workers })
	set("stream-chunks", func() { cfg.StreamChunks = o.chunks })
	set("chunk-interval-ms", func() { cfg.ChunkIntervalMS = o.intervalMS })
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	o.log = logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	return nil
}
