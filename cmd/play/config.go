package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kapu/quien-soy-bot-go/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Options are the terminal client flags. Empty values keep the setting
// loaded from the environment.
type Options struct {
	theme    string
	locale   string
	source   string
	logLevel string
	logFile  string
	noImages bool
}

func (o *Options) validate() error {
	switch o.source {
	case "", config.SourceAI, config.SourceCatalog, config.SourceAIAndCatalog:
	default:
		return fmt.Errorf("invalid --source %q (want %s, %s or %s)", o.source, config.SourceAI, config.SourceCatalog, config.SourceAIAndCatalog)
	}
	return nil
}

// apply overlays the flags on cfg and re-validates it.
func (o *Options) apply(cfg *config.Config) error {
	if o.theme != "" {
		cfg.Game.Theme = o.theme
	}
	if o.locale != "" {
		cfg.Game.Locale = o.locale
	}
	if o.source != "" {
		cfg.Game.CharacterSource = o.source
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Logging.File = o.logFile
	}
	if o.noImages {
		cfg.Game.ImageLookup = false
	}
	cfg.Bot.Prefix = commandPrefix
	return cfg.Validate()
}

func newCmd(opts *Options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIENSOY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "play",
		Short:         "Play ¿Quién Soy? in the terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.theme, "theme", "t", "", "theme characters are drawn from (env: QUIENSOY_THEME)")
	fs.StringVarP(&opts.locale, "locale", "l", "", "locale for replies and numbers, e.g. es-ES (env: QUIENSOY_LOCALE)")
	fs.StringVarP(&opts.source, "source", "s", "", "character source: ai, catalog or ai+catalog (env: QUIENSOY_SOURCE)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (env: QUIENSOY_LOG_LEVEL)")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to this file (env: QUIENSOY_LOG_FILE)")
	fs.BoolVar(&opts.noImages, "no-images", false, "skip the image lookup after each round (env: QUIENSOY_NO_IMAGES)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quien-soy v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
