// Command revwat is the batch-driver CLI spec.md §6 names: three
// subcommands — embed-batch, extract, remove-batch — each taking a
// configuration file path.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/revwat/revwat/batch"
	"github.com/revwat/revwat/ledger"
	"github.com/revwat/revwat/rwconfig"
)

// Exit codes, per spec.md §6: "exiting 0 on full success, 1 on any
// per-image failure (while still processing the remainder), 2 on
// unusable configuration, 3 on ledger corruption."
const (
	exitSuccess       = 0
	exitPartialFail   = 1
	exitBadConfig     = 2
	exitLedgerCorrupt = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := &cobra.Command{
		Use:   "revwat",
		Short: "Reversible image watermarking engine with a hash-chained ledger",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			batch.SetVerbose(verbose)
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log per-image and per-block progress to stderr")

	var code int
	root.AddCommand(
		embedBatchCmd(&code),
		extractCmd(&code),
		removeBatchCmd(&code),
	)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code == exitSuccess {
			code = exitBadConfig
		}
	}
	return code
}

func embedBatchCmd(code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "embed-batch <config.json>",
		Short: "Embed the configured watermark into every image under data_path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rwconfig.Load(args[0])
			if err != nil {
				*code = exitBadConfig
				return err
			}
			res, err := batch.EmbedBatch(cfg)
			if err != nil {
				*code = exitCodeFor(err)
				return err
			}
			fmt.Printf("embedded %d/%d images (%d failed)\n", res.ProcessedImages, res.TotalImages, len(res.FailedImages))
			for _, f := range res.FailedImages {
				fmt.Fprintln(os.Stderr, f)
			}
			*code = exitSuccess
			if len(res.FailedImages) > 0 {
				*code = exitPartialFail
			}
			return nil
		},
	}
}

func extractCmd(code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <config.json>",
		Short: "Extract the watermark from every image under data_path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rwconfig.Load(args[0])
			if err != nil {
				*code = exitBadConfig
				return err
			}
			results, err := batch.Extract(cfg)
			if err != nil {
				*code = exitCodeFor(err)
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
					continue
				}
				fmt.Printf("%s: watermark=%s ber=%.4f\n", r.Path, r.Watermark, r.BER)
			}
			*code = exitSuccess
			if failed > 0 {
				*code = exitPartialFail
			}
			return nil
		},
	}
}

func removeBatchCmd(code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-batch <config.json>",
		Short: "Reverse every watermarked image under data_path back to its original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rwconfig.Load(args[0])
			if err != nil {
				*code = exitBadConfig
				return err
			}
			res, err := batch.RemoveBatch(cfg)
			if err != nil {
				*code = exitCodeFor(err)
				return err
			}
			fmt.Printf("restored %d/%d images (average ber=%.4f)\n", res.SuccessfulExtractions, res.BatchSize, res.AverageBER)
			*code = exitSuccess
			if res.FailedExtractions > 0 {
				*code = exitPartialFail
			}
			return nil
		},
	}
}

// exitCodeFor maps a batch-level error to spec.md §6's ledger-corruption
// code when applicable, otherwise treats it as a configuration failure
// (the batch failed before any per-image processing could even start).
func exitCodeFor(err error) int {
	if errors.Is(err, ledger.ErrCorrupt) {
		return exitLedgerCorrupt
	}
	return exitBadConfig
}
