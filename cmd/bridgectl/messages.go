package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/omni/vaa-bridge/bridge"
)

var publishCmd = &cobra.Command{
	Use:   "publish <payload-hex>",
	Short: "Publish a message under a signer or program derived emitter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := hexutil.Decode(args[0])
		if err != nil {
			return fmt.Errorf("%w: payload: %s", ErrInvalidArgument, err)
		}
		origin, err := originFromFlags(cmd)
		if err != nil {
			return err
		}
		req := &bridge.PublishRequest{Origin: origin, Payload: payload}
		req.Nonce, _ = cmd.Flags().GetUint32("nonce")
		req.ConsistencyLevel, _ = cmd.Flags().GetUint8("consistency-level")
		req.Fee, _ = cmd.Flags().GetUint64("fee")

		seq, err := env.Bridge.Publish(cmd.Context(), req)
		if err != nil {
			return err
		}
		emitter, _ := origin.Emitter()
		msg, err := env.Bridge.Message(cmd.Context(), emitter, seq)
		if err != nil {
			return err
		}
		return printJSON(cmd, msg)
	},
}

func originFromFlags(cmd *cobra.Command) (bridge.Origin, error) {
	signer, _ := cmd.Flags().GetString("signer")
	program, _ := cmd.Flags().GetString("program")
	seed, _ := cmd.Flags().GetString("seed")
	switch {
	case signer != "" && program == "":
		address, err := parseAddress(signer)
		if err != nil {
			return nil, err
		}
		return bridge.SignerOrigin{Address: address}, nil
	case program != "" && signer == "":
		id, err := parseHash(program)
		if err != nil {
			return nil, err
		}
		return bridge.ProgramOrigin{Program: id, Seed: seed}, nil
	default:
		return nil, fmt.Errorf("%w: exactly one of --signer and --program is required", ErrInvalidArgument)
	}
}

var postCmd = &cobra.Command{
	Use:   "post <vaa-hex | @file>",
	Short: "Verify and record a signed VAA",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readVAA(args[0])
		if err != nil {
			return err
		}
		posted, err := env.Bridge.PostVAA(cmd.Context(), raw)
		if err != nil {
			return err
		}
		return printJSON(cmd, posted)
	},
}

// readVAA accepts hex either inline or from the file named after an @.
func readVAA(arg string) ([]byte, error) {
	if path := strings.TrimPrefix(arg, "@"); path != arg {
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("can't read vaa file: %w", err)
		}
		arg = strings.TrimSpace(string(blob))
	}
	raw, err := hexutil.Decode(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: vaa: %s", ErrInvalidArgument, err)
	}
	return raw, nil
}

var messagesCmd = &cobra.Command{
	Use:   "messages <emitter>",
	Short: "List messages published by an emitter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		emitter, err := parseHash(args[0])
		if err != nil {
			return err
		}
		from, _ := cmd.Flags().GetUint64("from")
		limit, _ := cmd.Flags().GetUint64("limit")
		msgs, err := env.Bridge.Messages(cmd.Context(), emitter, from, limit)
		if err != nil {
			return err
		}
		return printJSON(cmd, msgs)
	},
}

func init() {
	publishCmd.Flags().String("signer", "", "Signer address of the emitter")
	publishCmd.Flags().String("program", "", "Program id of a derived emitter")
	publishCmd.Flags().String("seed", "", "Seed of a derived emitter")
	publishCmd.Flags().Uint32("nonce", 0, "Message nonce")
	publishCmd.Flags().Uint8("consistency-level", 1, "Message consistency level")
	publishCmd.Flags().Uint64("fee", 0, "Message fee paid")

	messagesCmd.Flags().Uint64("from", 0, "First sequence to list")
	messagesCmd.Flags().Uint64("limit", bridge.DefaultMessagesLimit, "Maximum number of messages")

	rootCmd.AddCommand(publishCmd, postCmd, messagesCmd)
}
