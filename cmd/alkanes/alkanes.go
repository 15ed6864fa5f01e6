package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/cobra"

	"alkanes-core/core/coinselect"
	"alkanes-core/core/decode"
	"alkanes-core/core/execute"
	"alkanes-core/core/inspector"
	"alkanes-core/core/model"
	"alkanes-core/core/varint"
)

func alkanesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "alkanes"}
	cmd.AddCommand(executeCmd(), inspectCmd(), traceCmd(), wrapBTCCmd(), simulateCmd())
	for _, name := range []string{"traceblock", "getbytecode", "getbalance"} {
		cmd.AddCommand(indexerStub(name))
	}
	return cmd
}

// indexerStub covers the alkanes subcommands that read from the metashrew
// indexer rather than the provider boundary this core models — block-level
// traces, stored contract bytecode, and aggregated balance sheets have no
// home in the provider's UTXO-level interface (out of scope per the
// indexer boundary). Kept distinct from notImplementedGroup's top-level
// stubs since these sit inside the `alkanes` group alongside the real
// commands.
func indexerStub(name string) *cobra.Command {
	return &cobra.Command{
		Use: name,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("alkanes %s: not implemented — requires a metashrew indexer RPC, out of scope for this core", name)
		},
	}
}

func outputFlag(cmd *cobra.Command) {
	cmd.Flags().StringArray("output", nil, `recipient output as "<hex-script>:<value-sats>" (repeatable)`)
	cmd.Flags().Uint64("fee-rate", 0, "fee rate in sat/vB")
	cmd.Flags().String("cellpack-target", "", `"<block>:<tx>" alkane id the cellpack invokes`)
	cmd.Flags().String("cellpack-inputs", "", "comma-separated u128 cellpack arguments")
	cmd.Flags().String("bytecode-file", "", "path to gzip-uncompressed contract bytecode to deploy (commit-reveal)")
}

func parseOutputs(cmd *cobra.Command) ([]*wire.TxOut, error) {
	specs, err := cmd.Flags().GetStringArray("output")
	if err != nil {
		return nil, err
	}
	var outs []*wire.TxOut
	for _, s := range specs {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed --output %q, want <hex-script>:<value-sats>", s)
		}
		script, err := hex.DecodeString(parts[0])
		if err != nil {
			return nil, fmt.Errorf("--output %q: %w", s, err)
		}
		value, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--output %q: %w", s, err)
		}
		outs = append(outs, wire.NewTxOut(value, script))
	}
	return outs, nil
}

func parseProtostoneSpecs(cmd *cobra.Command) ([]model.ProtostoneSpec, error) {
	target, _ := cmd.Flags().GetString("cellpack-target")
	if target == "" {
		return nil, nil
	}
	parts := strings.SplitN(target, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed --cellpack-target %q, want <block>:<tx>", target)
	}
	block, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("--cellpack-target block: %w", err)
	}
	tx, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("--cellpack-target tx: %w", err)
	}

	inputsStr, _ := cmd.Flags().GetString("cellpack-inputs")
	var inputs []varint.Uint128
	if inputsStr != "" {
		for _, field := range strings.Split(inputsStr, ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("--cellpack-inputs %q: %w", field, err)
			}
			inputs = append(inputs, varint.FromUint64(n))
		}
	}

	return []model.ProtostoneSpec{{
		Cellpack: &model.Cellpack{
			Target: model.AlkaneId{Block: varint.FromUint64(block), Tx: varint.FromUint64(tx)},
			Inputs: inputs,
		},
	}}, nil
}

func readBytecode(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("bytecode-file")
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func confirmBroadcast(cmd *cobra.Command) bool {
	if flagAutoConfirm {
		return true
	}
	fmt.Fprint(cmd.OutOrStdout(), "broadcast this transaction? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func printResult(cmd *cobra.Command, result *execute.Result) {
	if flagRaw {
		b, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return
	}
	if result.CommitTxid != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "commit txid: %s (fee %d sats)\n", *result.CommitTxid, *result.CommitFee)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reveal txid: %s (fee %d sats)\n", result.RevealTxid, result.RevealFee)
	log.Infof("broadcast reveal txid=%s fee=%d", result.RevealTxid, result.RevealFee)
	if flagTrace {
		for i, tr := range result.Traces {
			fmt.Fprintf(cmd.OutOrStdout(), "trace[%d]: %s\n", i, string(tr))
		}
	}
}

func executeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "build, sign, and broadcast an alkanes-protocol transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prov, err := dialProvider(ctx)
			if err != nil {
				return err
			}

			outputs, err := parseOutputs(cmd)
			if err != nil {
				return err
			}
			specs, err := parseProtostoneSpecs(cmd)
			if err != nil {
				return err
			}
			bytecode, err := readBytecode(cmd)
			if err != nil {
				return err
			}
			feeRate, _ := cmd.Flags().GetUint64("fee-rate")

			params := execute.Params{
				Scope:           coinselect.Scope{},
				Outputs:         outputs,
				ProtostoneSpecs: specs,
				Bytecode:        bytecode,
				FeeRate:         feeRate,
				MineEnabled:     flagMine,
			}

			if len(bytecode) == 0 {
				state, err := execute.BuildSingle(ctx, prov, params)
				if err != nil {
					return err
				}
				if !confirmBroadcast(cmd) {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
				result, err := execute.ResumeExecution(ctx, prov, state)
				if err != nil {
					return err
				}
				printResult(cmd, result)
				return nil
			}

			commitState, err := execute.BuildCommitReveal(ctx, prov, params)
			if err != nil {
				return err
			}
			if !confirmBroadcast(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			revealState, err := execute.ResumeCommitExecution(ctx, prov, commitState)
			if err != nil {
				return err
			}
			result, err := execute.ResumeRevealExecution(ctx, prov, revealState)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
	outputFlag(cmd)
	return cmd
}

// wrapBTCCmd is execute specialized to the single most common call shape:
// a bitcoin transfer with no cellpack, no bytecode — wrapping BTC into the
// outputs named by --output without touching the commit-reveal path.
func wrapBTCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrap-btc",
		Short: "send bitcoin alongside an alkanes transaction with no deployment or invocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prov, err := dialProvider(ctx)
			if err != nil {
				return err
			}
			outputs, err := parseOutputs(cmd)
			if err != nil {
				return err
			}
			feeRate, _ := cmd.Flags().GetUint64("fee-rate")

			state, err := execute.BuildSingle(ctx, prov, execute.Params{
				Scope:   coinselect.Scope{},
				Outputs: outputs,
				FeeRate: feeRate,
			})
			if err != nil {
				return err
			}
			if !confirmBroadcast(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			result, err := execute.ResumeExecution(ctx, prov, state)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringArray("output", nil, `recipient output as "<hex-script>:<value-sats>" (repeatable)`)
	cmd.Flags().Uint64("fee-rate", 0, "fee rate in sat/vB")
	return cmd
}

// simulateCmd runs the same build path as execute up to the unsigned PSBT,
// then stops: no signing, no broadcast. It exercises coinselect, psbtbuild,
// and the envelope/runestone assembly exactly as execute does, just without
// the irreversible step.
func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "build an alkanes-protocol transaction without signing or broadcasting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prov, err := dialProvider(ctx)
			if err != nil {
				return err
			}
			outputs, err := parseOutputs(cmd)
			if err != nil {
				return err
			}
			specs, err := parseProtostoneSpecs(cmd)
			if err != nil {
				return err
			}
			bytecode, err := readBytecode(cmd)
			if err != nil {
				return err
			}
			feeRate, _ := cmd.Flags().GetUint64("fee-rate")

			params := execute.Params{
				Scope:           coinselect.Scope{},
				Outputs:         outputs,
				ProtostoneSpecs: specs,
				Bytecode:        bytecode,
				FeeRate:         feeRate,
			}

			if len(bytecode) == 0 {
				state, err := execute.BuildSingle(ctx, prov, params)
				if err != nil {
					return err
				}
				return printSimulated(cmd, state.Packet, state.Fee, prov.GetNetwork())
			}
			state, err := execute.BuildCommitReveal(ctx, prov, params)
			if err != nil {
				return err
			}
			return printSimulated(cmd, state.Packet, state.Fee, prov.GetNetwork())
		},
	}
	outputFlag(cmd)
	return cmd
}

func printSimulated(cmd *cobra.Command, pkt *psbt.Packet, fee uint64, network *chaincfg.Params) error {
	tree, err := decode.Build(pkt.UnsignedTx, network)
	if err != nil {
		return err
	}
	if flagRaw {
		b, _ := json.MarshalIndent(struct {
			Fee  uint64
			Tree *decode.Tree
		}{fee, tree}, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "simulated fee: %d sats\n", fee)
	fmt.Fprint(cmd.OutOrStdout(), decode.Render(tree))
	return nil
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "simulate a contract's entry point against a host-function sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("bytecode-file")
			entry, _ := cmd.Flags().GetString("entry-point")
			if path == "" {
				return fmt.Errorf("inspect: --bytecode-file is required")
			}
			bytecode, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			result, err := inspector.Inspect(bytecode, inspector.Config{EntryPoint: entry})
			if err != nil {
				return err
			}
			if flagRaw {
				b, _ := json.MarshalIndent(result, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %v\n", result.Status)
			if result.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", result.Error)
			}
			for _, hc := range result.HostCalls {
				fmt.Fprintf(cmd.OutOrStdout(), "host call: %s(%x)\n", hc.Name, hc.Args)
			}
			return nil
		},
	}
	cmd.Flags().String("bytecode-file", "", "path to wasm bytecode")
	cmd.Flags().String("entry-point", "_start", "exported function to invoke")
	return cmd
}

func traceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <txid> <vout>",
		Short: "fetch the provider's execution trace for an outpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prov, err := dialProvider(ctx)
			if err != nil {
				return err
			}
			vout, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return err
			}
			trace, err := prov.TraceOutpoint(ctx, args[0], uint32(vout))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(trace))
			return nil
		},
	}
	return cmd
}
