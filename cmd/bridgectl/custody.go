package main

import (
	"github.com/spf13/cobra"

	"github.com/omni/vaa-bridge/bridge"
)

var mintCmd = &cobra.Command{
	Use:   "mint <token> <owner> <amount>",
	Short: "Credit a local token balance",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := parseHash(args[0])
		if err != nil {
			return err
		}
		owner, err := parseHash(args[1])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		from, err := caller()
		if err != nil {
			return err
		}
		if err = env.Bridge.Mint(cmd.Context(), from, token, owner, amount); err != nil {
			return err
		}
		balance, err := env.Bridge.Balance(cmd.Context(), token, owner)
		if err != nil {
			return err
		}
		return printJSON(cmd, balance)
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund-vault <token> <amount>",
	Short: "Add liquidity to the custody vault of a token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := parseHash(args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		from, err := caller()
		if err != nil {
			return err
		}
		if err = env.Bridge.FundVault(cmd.Context(), from, token, amount); err != nil {
			return err
		}
		vault, err := env.Bridge.Vault(cmd.Context(), token)
		if err != nil {
			return err
		}
		return printJSON(cmd, vault)
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <source-token> <amount> <target-chain> <target-token> <recipient>",
	Short: "Lock tokens into custody and publish a transfer message",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := new(bridge.TransferRequest)
		var err error
		if req.SourceToken, err = parseHash(args[0]); err != nil {
			return err
		}
		if req.Amount, err = parseAmount(args[1]); err != nil {
			return err
		}
		if req.TargetChain, err = parseChain(args[2]); err != nil {
			return err
		}
		if req.TargetToken, err = parseHash(args[3]); err != nil {
			return err
		}
		if req.Recipient, err = parseHash(args[4]); err != nil {
			return err
		}
		payer, _ := cmd.Flags().GetString("payer")
		if req.Payer, err = parseHash(payer); err != nil {
			return err
		}
		req.Nonce, _ = cmd.Flags().GetUint32("nonce")
		req.ConsistencyLevel, _ = cmd.Flags().GetUint8("consistency-level")
		req.Fee, _ = cmd.Flags().GetUint64("fee")

		seq, err := env.Bridge.LockAndTransfer(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]interface{}{
			"emitter":  env.Bridge.TokenBridgeEmitter(),
			"sequence": seq,
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <chain> <emitter> <sequence>",
	Short: "Settle a posted inbound transfer VAA",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseVAAKey(args)
		if err != nil {
			return err
		}
		settlement, err := env.Bridge.CompleteTransfer(cmd.Context(), key)
		if err != nil {
			return err
		}
		return printJSON(cmd, settlement)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <token> <owner>",
	Short: "Print a local token balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := parseHash(args[0])
		if err != nil {
			return err
		}
		owner, err := parseHash(args[1])
		if err != nil {
			return err
		}
		balance, err := env.Bridge.Balance(cmd.Context(), token, owner)
		if err != nil {
			return err
		}
		return printJSON(cmd, balance)
	},
}

var vaultCmd = &cobra.Command{
	Use:   "vault <token>",
	Short: "Print the custody vault of a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := parseHash(args[0])
		if err != nil {
			return err
		}
		vault, err := env.Bridge.Vault(cmd.Context(), token)
		if err != nil {
			return err
		}
		return printJSON(cmd, vault)
	},
}

func init() {
	lockCmd.Flags().String("payer", "", "Owner of the locked balance")
	lockCmd.Flags().Uint32("nonce", 0, "Message nonce")
	lockCmd.Flags().Uint8("consistency-level", 1, "Message consistency level")
	lockCmd.Flags().Uint64("fee", 0, "Message fee paid")
	//nolint:errcheck
	lockCmd.MarkFlagRequired("payer")

	rootCmd.AddCommand(mintCmd, fundCmd, lockCmd, completeCmd, balanceCmd, vaultCmd)
}
