package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/near"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var networkNoSave bool

// networkCmd is the parent command for network selection.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkCmd = &cobra.Command{
	Use:     "network",
	Short:   "Show or change the selected network",
	GroupID: "session",
}

// networkShowCmd prints the selected network.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the selected network",
	RunE:  runNetworkShow,
}

// networkSwitchCmd changes the selected network.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkSwitchCmd = &cobra.Command{
	Use:   "switch <mainnet|testnet>",
	Short: "Select another network",
	Long: `Select another network and save it as the default.

A session signed in on another network is kept but hidden until that
network is selected again.

Example:
  nearconnect network switch testnet
  nearconnect network switch mainnet --no-save`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(near.Mainnet), string(near.Testnet)},
	RunE:      runNetworkSwitch,
}

type networkView struct {
	Network   string `json:"network"`
	Previous  string `json:"previous,omitempty"`
	Connected bool   `json:"connected"`
}

func runNetworkShow(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	v := networkView{
		Network:   cc.Manager.Network().String(),
		Connected: cc.Manager.Session() != nil,
	}
	return cc.Fmt.Emit(v, func(w io.Writer) error {
		outln(w, v.Network)
		return nil
	})
}

func runNetworkSwitch(cmd *cobra.Command, args []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	prev := cc.Manager.Network()
	if err := cc.Manager.SwitchNetwork(cmd.Context(), near.Network(args[0])); err != nil {
		return err
	}
	next := cc.Manager.Network()

	if !networkNoSave && next != prev {
		cc.Cfg.Network = next.String()
		if err := config.Save(cc.Cfg, config.Path(cc.Cfg.GetHome())); err != nil {
			return err
		}
	}

	v := networkView{
		Network:   next.String(),
		Previous:  prev.String(),
		Connected: cc.Manager.Session() != nil,
	}
	return cc.Fmt.Emit(v, func(w io.Writer) error {
		if next == prev {
			out(w, "Already on %s\n", next)
			return nil
		}
		out(w, "Switched from %s to %s\n", prev, next)
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	networkSwitchCmd.Flags().BoolVar(&networkNoSave, "no-save", false, "do not save the selection to the config file")

	networkCmd.AddCommand(networkShowCmd, networkSwitchCmd)
	rootCmd.AddCommand(networkCmd)
}
