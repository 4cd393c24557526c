package nirvanamm

import (
	"fmt"
	"strings"

	"github.com/nirvanamm/nirvanamm/internal/version"
	"github.com/nirvanamm/nirvanamm/pkg/order"
	"github.com/nirvanamm/nirvanamm/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// guidCompletion completes installed mod GUIDs not already on the line.
func guidCompletion(opts *globalOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		a, err := opts.open()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		given := make(map[string]bool, len(args))
		for _, arg := range args {
			given[arg] = true
		}

		var guids []string
		for _, mod := range a.manager.Mods() {
			guid := mod.GUID()
			if !given[guid] && strings.HasPrefix(guid, toComplete) {
				guids = append(guids, guid)
			}
		}
		return guids, cobra.ShellCompDirectiveNoFileComp
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Long:    MsgListLong,
		GroupID: "mods",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			m := a.manager
			return r.RenderResult(ui.NewModList(a.fs, a.paths.ModsDir(), m.Mods(), m.Failures(), m.IsActive))
		},
	}
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "validate [guids...]",
		Short:             MsgValidateShort,
		Long:              MsgValidateLong,
		GroupID:           "mods",
		ValidArgsFunction: guidCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			verdict, err := a.manager.Validate(args)
			if err != nil {
				return err
			}
			if err := r.RenderResult(ui.NewVerdictView(verdict)); err != nil {
				return err
			}
			if !verdict.OK() {
				return reportedError{verdict.Err()}
			}
			return nil
		},
	}
}

func newOrderCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "order [guids...]",
		Short:             MsgOrderShort,
		GroupID:           "mods",
		ValidArgsFunction: guidCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			chain, err := a.manager.Order(args)
			if err != nil {
				return err
			}
			return r.RenderResult(ui.NewChainView(chain))
		},
	}
}

func newInspectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "inspect <guid>",
		Short:             MsgInspectShort,
		GroupID:           "mods",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: guidCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			inspection, err := a.manager.Inspect(args[0])
			if err != nil {
				return err
			}
			return r.RenderResult(ui.NewInspectView(inspection.GUID, inspection.Header))
		},
	}
}

func newApplyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "apply [guids...]",
		Short:             MsgApplyShort,
		Long:              MsgApplyLong,
		Example:           MsgApplyExample,
		GroupID:           "game",
		ValidArgsFunction: guidCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			m := a.manager
			log.Info().Strs("guids", args).Str("game_root", m.Config().DataWin.GameRoot).Msg("Applying mods")

			results, err := m.ApplyAsync(args)
			if err != nil {
				return err
			}
			p := newProgress(opts, cmd.ErrOrStderr(), MsgSpinApplying)
			res := await(results, m.State, p)
			p.stop()
			m.Commit(res)
			if res.Err != nil {
				return res.Err
			}

			active := m.Config().DataWin.ActiveMods
			if len(active) == 0 {
				return r.RenderMessage(MsgNothingApplied)
			}
			chain, err := m.Order(active)
			if err != nil {
				return err
			}
			return r.RenderMessage(fmt.Sprintf(MsgApplied, len(chain), strings.Join(order.GUIDs(chain), ", ")))
		},
	}
}

func newPrepareCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "prepare",
		Short:   MsgPrepareShort,
		GroupID: "game",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			p := newProgress(opts, cmd.ErrOrStderr(), MsgSpinPrepare)
			stats, err := a.manager.Prepare()
			p.stop()
			if err != nil {
				return err
			}
			return r.RenderResult(ui.NewPrepareView(a.paths.OriginPath(), stats))
		},
	}
}

func newResetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		Short:   MsgResetShort,
		GroupID: "game",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			p := newProgress(opts, cmd.ErrOrStderr(), MsgSpinReset)
			err = a.manager.Reset()
			p.stop()
			if err != nil {
				return err
			}
			return r.RenderMessage(MsgReset)
		},
	}
}

func newPurgeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "purge",
		Short:   MsgPurgeShort,
		Long:    MsgPurgeLong,
		GroupID: "game",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			p := newProgress(opts, cmd.ErrOrStderr(), MsgSpinPurge)
			err = a.manager.Purge()
			p.stop()
			if err != nil {
				return err
			}
			return r.RenderMessage(MsgPurged)
		},
	}
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: MsgConfigShow,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			m := a.manager
			return r.RenderResult(ui.NewConfigView(m.Config(), a.paths, m.OriginExists(), a.settings.Codec.Binary))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-root <dir>",
		Short: MsgSetRootShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if err := a.manager.SetGameRoot(args[0]); err != nil {
				return err
			}
			return r.RenderMessage(fmt.Sprintf(MsgGameRootSet, a.manager.Config().DataWin.GameRoot))
		},
	})

	return cmd
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return r.RenderResult(ui.VersionView{
				Version: version.Version,
				Commit:  version.Commit,
				Date:    version.Date,
			})
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
