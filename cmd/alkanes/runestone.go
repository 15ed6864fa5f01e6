package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"alkanes-core/core/decode"
	"alkanes-core/core/provider"
)

func runestoneCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "runestone"}
	cmd.AddCommand(runestoneAnalyzeCmd())
	return cmd
}

func runestoneAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <raw-tx-hex>",
		Short: "decode a transaction's runestone and protostones (spec §4.10)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(args[0])
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			var tx wire.MsgTx
			if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
				return fmt.Errorf("analyze: deserialize transaction: %w", err)
			}
			networkName, _ := cmd.Flags().GetString("network")
			params, err := provider.ParamsForName(networkName)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			tree, err := decode.Build(&tx, params)
			if err != nil {
				return err
			}
			if flagRaw {
				b, _ := json.MarshalIndent(tree, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), decode.Render(tree))
			return nil
		},
	}
	cmd.Flags().String("network", "mainnet", "network whose address encoding enriches destinations")
	return cmd
}
