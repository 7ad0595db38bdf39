package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zjrosen/arbor/internal/config"
	"github.com/zjrosen/arbor/internal/flags"
)

func newFlagsCmd(o *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "flags",
		Short: "List feature flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.listFlags(cmd)
		},
	}
	c.AddCommand(&cobra.Command{
		Use:   "set <name> <true|false>",
		Short: "Turn a feature flag on or off in the config file",
		Example: `  arbor flags set log-pane true
  arbor flags set scene-watch false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.setFlag(cmd, args[0], args[1])
		},
	})
	return c
}

func (o *options) listFlags(cmd *cobra.Command) error {
	fl := o.flagRegistry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range flags.Known() {
		fmt.Fprintf(w, "%s\t%s\n", name, onOff(fl.Enabled(name)))
	}
	for _, name := range fl.Unknown() {
		fmt.Fprintf(w, "%s\t%s\t(unknown)\n", name, onOff(fl.Enabled(name)))
	}
	return w.Flush()
}

func (o *options) setFlag(cmd *cobra.Command, name, value string) error {
	if !slices.Contains(flags.Known(), name) {
		return fmt.Errorf("unknown flag %q (known: %v)", name, flags.Known())
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("flag value must be true or false, got %q", value)
	}
	path := o.configPath()
	if err := config.SaveFlag(path, name, enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s in %s\n", name, onOff(enabled), path)
	return nil
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
