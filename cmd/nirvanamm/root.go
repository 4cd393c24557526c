// Package nirvanamm holds the command line interface of the mod manager.
package nirvanamm

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/nirvanamm/nirvanamm/internal/version"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/core"
	"github.com/nirvanamm/nirvanamm/pkg/filesystem"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/paths"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"github.com/nirvanamm/nirvanamm/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	verbosity int
	dataDir   string
	format    string
	codec     string
}

// app is what a command works with once flags are parsed.
type app struct {
	fs       types.FS
	paths    paths.Paths
	settings *config.Settings
	manager  *core.Manager
}

func (o *globalOptions) overrides() map[string]interface{} {
	if o.codec == "" {
		return nil
	}
	return map[string]interface{}{"codec.binary": o.codec}
}

// open loads settings and state and scans the mods directory.
func (o *globalOptions) open() (*app, error) {
	p, err := paths.New(o.dataDir)
	if err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings(p.SettingsPath(), o.overrides())
	if err != nil {
		return nil, err
	}

	fs := filesystem.NewOS()
	m, err := core.New(core.Options{FS: fs, Paths: p, Settings: settings})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("data_dir", p.DataDir()).Int("mods", len(m.Mods())).Msg("Manager ready")
	return &app{fs: fs, paths: p, settings: settings, manager: m}, nil
}

func (o *globalOptions) parsedFormat() (ui.Format, error) {
	return ui.ParseFormat(o.format)
}

func (o *globalOptions) renderer(w io.Writer) (ui.Renderer, error) {
	format, err := o.parsedFormat()
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, w)
}

// reportedError marks an error whose details were already rendered.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "nirvanamm",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", MsgFlagDataDir)
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "auto", MsgFlagFormat)
	rootCmd.PersistentFlags().StringVar(&opts.codec, "codec", "", MsgFlagCodec)

	rootCmd.AddGroup(&cobra.Group{ID: "mods", Title: "MODS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "game", Title: "GAME:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newOrderCmd(opts))
	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newApplyCmd(opts))
	rootCmd.AddCommand(newPrepareCmd(opts))
	rootCmd.AddCommand(newResetCmd(opts))
	rootCmd.AddCommand(newPurgeCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// ReportError renders err on the root command's error stream in the
// requested output format.
func ReportError(rootCmd *cobra.Command, err error) {
	var reported reportedError
	if stderrors.As(err, &reported) {
		return
	}

	w := rootCmd.ErrOrStderr()
	format, _ := rootCmd.PersistentFlags().GetString("format")
	parsed, parseErr := ui.ParseFormat(format)
	if parseErr != nil {
		parsed = ui.FormatAuto
	}
	r, rendErr := ui.NewRenderer(parsed, w)
	if rendErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	_ = r.RenderError(err)
}
