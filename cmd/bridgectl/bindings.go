package main

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/omni/vaa-bridge/entity"
)

const bindingKeyUsage = "<source-chain> <source-token> <target-chain> <target-token>"

var bindingCmd = &cobra.Command{
	Use:   "binding",
	Short: "Manage token bindings",
}

var bindingRegisterCmd = &cobra.Command{
	Use:   "register " + bindingKeyUsage,
	Short: "Register a token binding, optionally with its reverse direction",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseBindingKey(args)
		if err != nil {
			return err
		}
		from, err := caller()
		if err != nil {
			return err
		}
		bidirectional, _ := cmd.Flags().GetBool("bidirectional")
		if !bidirectional {
			binding, err := env.Bridge.RegisterUnidirectional(cmd.Context(), from, key)
			if err != nil {
				return err
			}
			return printJSON(cmd, binding)
		}

		outRate, _ := cmd.Flags().GetString("out-rate")
		inRate, _ := cmd.Flags().GetString("in-rate")
		outNum, outDenom, err := parseRate(outRate)
		if err != nil {
			return err
		}
		inNum, inDenom, err := parseRate(inRate)
		if err != nil {
			return err
		}
		out, in, err := env.Bridge.RegisterBidirectional(cmd.Context(), from, key, outNum, outDenom, inNum, inDenom)
		if err != nil {
			return err
		}
		return printJSON(cmd, []*entity.TokenBinding{out, in})
	},
}

var bindingRateCmd = &cobra.Command{
	Use:   "set-rate " + bindingKeyUsage + " <numerator/denominator>",
	Short: "Set the exchange rate of a token binding",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseBindingKey(args[:4])
		if err != nil {
			return err
		}
		num, denom, err := parseRate(args[4])
		if err != nil {
			return err
		}
		from, err := caller()
		if err != nil {
			return err
		}
		binding, err := env.Bridge.SetExchangeRate(cmd.Context(), from, key, num, denom)
		if err != nil {
			return err
		}
		return printJSON(cmd, binding)
	},
}

func newBindingToggleCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " " + bindingKeyUsage,
		Short: "Toggle whether a token binding accepts transfers",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseBindingKey(args)
			if err != nil {
				return err
			}
			from, err := caller()
			if err != nil {
				return err
			}
			binding, err := env.Bridge.SetBindingEnabled(cmd.Context(), from, key, enabled)
			if err != nil {
				return err
			}
			return printJSON(cmd, binding)
		},
	}
}

var bindingAmmCmd = &cobra.Command{
	Use:   "set-amm " + bindingKeyUsage,
	Short: "Configure the external price provider of a token binding",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseBindingKey(args)
		if err != nil {
			return err
		}
		var provider common.Address
		if raw, _ := cmd.Flags().GetString("provider"); raw != "" {
			if provider, err = parseAddress(raw); err != nil {
				return err
			}
		}
		external, _ := cmd.Flags().GetBool("external-price")
		from, err := caller()
		if err != nil {
			return err
		}
		binding, err := env.Bridge.SetAmmConfig(cmd.Context(), from, key, provider, external)
		if err != nil {
			return err
		}
		return printJSON(cmd, binding)
	},
}

var bindingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all token bindings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		bindings, err := env.Bridge.TokenBindings(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, bindings)
	},
}

func init() {
	bindingRegisterCmd.Flags().Bool("bidirectional", false, "Also register the reverse binding")
	bindingRegisterCmd.Flags().String("out-rate", "1/1", "Rate of the forward binding, with --bidirectional")
	bindingRegisterCmd.Flags().String("in-rate", "1/1", "Rate of the reverse binding, with --bidirectional")

	bindingAmmCmd.Flags().String("provider", "", "Price oracle contract address")
	bindingAmmCmd.Flags().Bool("external-price", false, "Quote transfers from the price provider instead of the fixed rate")

	bindingCmd.AddCommand(
		bindingRegisterCmd,
		bindingRateCmd,
		newBindingToggleCmd("enable", true),
		newBindingToggleCmd("disable", false),
		bindingAmmCmd,
		bindingListCmd,
	)
	rootCmd.AddCommand(bindingCmd)
}
