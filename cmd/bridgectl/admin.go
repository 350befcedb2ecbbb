package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the bridge with the configured authority and guardian set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(cfg.Bridge.InitialGuardianSet) == 0 {
			return fmt.Errorf("%w: bridge.initial_guardian_set is empty", ErrInvalidArgument)
		}
		if err := env.Bridge.InitializeFromConfig(cmd.Context()); err != nil {
			return err
		}
		return printState(cmd)
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the bridge state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printState(cmd)
	},
}

func printState(cmd *cobra.Command) error {
	state, err := env.Bridge.State(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, state)
}

func newPauseCmd(use string, paused bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Set the paused flag to %t", paused),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := caller()
			if err != nil {
				return err
			}
			if err = env.Bridge.SetPaused(cmd.Context(), from, paused); err != nil {
				return err
			}
			return printState(cmd)
		},
	}
}

var setFeeCmd = &cobra.Command{
	Use:   "set-fee <fee>",
	Short: "Set the fee charged for every published message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fee, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		from, err := caller()
		if err != nil {
			return err
		}
		if err = env.Bridge.SetMessageFee(cmd.Context(), from, fee); err != nil {
			return err
		}
		return printState(cmd)
	},
}

var registerEmitterCmd = &cobra.Command{
	Use:   "register-emitter <chain> <address>",
	Short: "Trust the token bridge emitter of a foreign chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chain, err := parseChain(args[0])
		if err != nil {
			return err
		}
		address, err := parseHash(args[1])
		if err != nil {
			return err
		}
		from, err := caller()
		if err != nil {
			return err
		}
		return env.Bridge.RegisterEmitter(cmd.Context(), from, chain, address)
	},
}

var emittersCmd = &cobra.Command{
	Use:   "emitters",
	Short: "List registered foreign emitters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		emitters, err := env.Bridge.RegisteredEmitters(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, emitters)
	},
}

var guardianSetsCmd = &cobra.Command{
	Use:   "guardian-sets",
	Short: "List all guardian sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sets, err := env.Bridge.GuardianSets(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, sets)
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade-guardian-set <chain> <emitter> <sequence>",
	Short: "Apply a posted guardian set upgrade governance VAA",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseVAAKey(args)
		if err != nil {
			return err
		}
		set, err := env.Bridge.UpgradeGuardianSet(cmd.Context(), key)
		if err != nil {
			return err
		}
		return printJSON(cmd, set)
	},
}

func init() {
	rootCmd.AddCommand(
		initCmd,
		stateCmd,
		newPauseCmd("pause", true),
		newPauseCmd("unpause", false),
		setFeeCmd,
		registerEmitterCmd,
		emittersCmd,
		guardianSetsCmd,
		upgradeCmd,
	)
}
