package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cacheBadge mirrors the popup's cache status button: the cache only counts
// as bypassed while the extension is enabled
func cacheBadge(noCache, extension bool) string {
	if !extension || !noCache {
		return "Cache enabled"
	}

	return "Cache disabled"
}

// printStatus writes the popup's view of the stored preferences
func printStatus(w io.Writer, values prefs, defaults prefs) {
	noCache := values.valueOr(prefNoCacheEnabled, defaults[prefNoCacheEnabled])
	extension := values.valueOr(prefExtensionEnabled, defaults[prefExtensionEnabled])
	highlight := values.valueOr(prefHighlightEnabled, defaults[prefHighlightEnabled])

	fmt.Fprintf(w, "%s\n", cacheBadge(noCache, extension))
	fmt.Fprintf(w, "  %-18s %t\n", prefExtensionEnabled, extension)
	fmt.Fprintf(w, "  %-18s %t\n", prefNoCacheEnabled, noCache)
	fmt.Fprintf(w, "  %-18s %t\n", prefHighlightEnabled, highlight)
}

// parseOnOff accepts on/off as well as anything strconv.ParseBool does
func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}

	b, err := strconv.ParseBool(arg)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", arg)
	}

	return b, nil
}

// dispatch connects to the browser and hands in to a fresh dispatcher
func (a *app) dispatch(ctx context.Context, in intent, tabID string) error {
	conn, err := a.connect(ctx)
	if err != nil {
		a.logger.Error("error connecting to browser", zap.Error(err))
		return err
	}

	return newDispatcher(a.store, conn, a.defaults(), a.logger).handle(ctx, in, tabID)
}

// set persists values, logging failures the way every surface does
func (a *app) set(ctx context.Context, values prefs) error {
	if err := a.store.Set(ctx, values); err != nil {
		a.logger.Error("error saving to storage", zap.Error(err))
		return err
	}

	return nil
}

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Write default preferences that are not set yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seeded, err := installDefaults(cmd.Context(), a.store, a.defaults())
			if err != nil {
				a.logger.Error("error saving to storage", zap.Error(err))
				return err
			}

			for _, k := range seeded.keys() {
				fmt.Fprintf(cmd.OutOrStdout(), "set %s=%t\n", k, seeded[k])
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored preferences and the cache state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.store.Get(cmd.Context(), prefNoCacheEnabled, prefExtensionEnabled, prefHighlightEnabled)
			if err != nil {
				// the popup still renders, with defaults
				a.logger.Error("error reading storage", zap.Error(err))
				values = prefs{}
			}

			printStatus(cmd.OutOrStdout(), values, a.defaults())
			return nil
		},
	}
}

func newNoCacheCmd(a *app) *cobra.Command {
	var tabID string

	cmd := &cobra.Command{
		Use:       "nocache [on|off]",
		Short:     "Turn the cache bypass marker on or off, or re-apply the stored state",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled *bool
			if len(args) == 1 {
				on, err := parseOnOff(args[0])
				if err != nil {
					return err
				}

				if err := a.set(cmd.Context(), prefs{prefNoCacheEnabled: on}); err != nil {
					return err
				}
				enabled = boolPtr(on)
			}

			return a.dispatch(cmd.Context(), newNoCacheIntent(enabled), tabID)
		},
	}

	cmd.Flags().StringVar(&tabID, "tab", "", "Target tab ID (default: active tab)")
	return cmd
}

func newEnableCmd(a *app, enabled bool) *cobra.Command {
	use, short := "enable", "Enable automatic cache bypass"
	if !enabled {
		use, short = "disable", "Disable automatic cache bypass"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.set(cmd.Context(), prefs{prefExtensionEnabled: enabled}); err != nil {
				return err
			}

			a.logger.Info("extension " + use + "d")

			values, err := a.store.Get(cmd.Context(), prefNoCacheEnabled)
			if err != nil {
				a.logger.Error("error reading storage", zap.Error(err))
				return err
			}

			noCache := values.valueOr(prefNoCacheEnabled, a.defaults()[prefNoCacheEnabled])
			fmt.Fprintln(cmd.OutOrStdout(), cacheBadge(noCache, enabled))
			return nil
		},
	}
}

func newHighlightCmd(a *app) *cobra.Command {
	var tabID, className string

	cmd := &cobra.Command{
		Use:   "highlight",
		Short: "Toggle the highlight class on the page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if className == "" {
				className = a.cfg.HighlightClass
			}

			values, err := a.store.Get(cmd.Context(), prefHighlightEnabled)
			if err != nil {
				a.logger.Error("error reading storage", zap.Error(err))
				return err
			}

			on := !values.valueOr(prefHighlightEnabled, a.defaults()[prefHighlightEnabled])
			if err := a.set(cmd.Context(), prefs{prefHighlightEnabled: on}); err != nil {
				return err
			}

			return a.dispatch(cmd.Context(), newToggleClassIntent(className, boolPtr(on)), tabID)
		},
	}

	cmd.Flags().StringVar(&tabID, "tab", "", "Target tab ID (default: active tab)")
	cmd.Flags().StringVar(&className, "class", "", "Class to toggle (default: highlight_class from config)")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Apply the stored cache bypass state to tracked tabs as they navigate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := installDefaults(ctx, a.store, a.defaults()); err != nil {
				a.logger.Error("error saving to storage", zap.Error(err))
				return err
			}

			conn, err := a.connect(ctx)
			if err != nil {
				a.logger.Error("error connecting to browser", zap.Error(err))
				return err
			}

			d := newDispatcher(a.store, conn, a.defaults(), a.logger)
			w := newWatcher(d, conn, conn, a.store, a.defaults(), a.cfg.PrefsPath, a.logger.Named("watch"))

			return w.run(ctx)
		},
	}
}
