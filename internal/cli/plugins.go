package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/output"
)

// pluginsCmd lists the plugin chain.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pluginsCmd = &cobra.Command{
	Use:     "plugins",
	Short:   "List the sign-in plugins in chain order",
	GroupID: "setup",
	RunE:    runPlugins,
}

func runPlugins(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	names := cc.Manager.Plugins()
	return cc.Fmt.Emit(names, func(w io.Writer) error {
		if len(names) == 0 {
			outln(w, "No plugins configured")
			return nil
		}
		t := output.NewTable("#", "PLUGIN")
		for i, name := range names {
			t.AddRow(strconv.Itoa(i+1), name)
		}
		return t.Render(w)
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(pluginsCmd)
}
