package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coinjecture.dev/consensus"
	"coinjecture.dev/metrics"
	"coinjecture.dev/node"
)

var (
	parentHashHex       string
	expectedHeight      uint64
	requireContentID    bool
	minDifficultyNibble int
)

var validateCmd = &cobra.Command{
	Use:   "validate <block-file>",
	Short: "Run consensus.ValidateBlock against a canonical-binary-encoded block file",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&parentHashHex, "parent-hash", "", "64-hex-char expected parent hash")
	validateCmd.Flags().Uint64Var(&expectedHeight, "height", 0, "expected block height")
	validateCmd.Flags().BoolVar(&requireContentID, "require-cid", false, "reject blocks missing a content identifier")
	validateCmd.Flags().IntVar(&minDifficultyNibble, "min-difficulty-nibbles", 0, "minimum leading zero hex nibbles in the header hash")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read block file: %w", err)
	}
	block, err := consensus.DecodeBlockBinary(raw)
	if err != nil {
		metrics.ObserveError(err)
		return fmt.Errorf("decode block: %w", err)
	}

	parentHash, err := decodeHash(parentHashHex)
	if err != nil {
		return fmt.Errorf("--parent-hash: %w", err)
	}

	policy := consensus.BlockValidationPolicy{
		RequireContentID:     requireContentID,
		MinDifficultyNibbles: minDifficultyNibble,
	}

	now := node.WallClockNow()
	if err := consensus.ValidateBlock(block, parentHash, expectedHeight, now, policy); err != nil {
		metrics.ObserveError(err)
		if ce, ok := consensus.AsConsensusError(err); ok && ce.IsCritical() {
			log.Error("critical consensus error during validate; halting", zap.String("code", string(ce.Code)), zap.Error(err))
			os.Exit(2)
		}
		return fmt.Errorf("validate block: %w", err)
	}

	metrics.ObserveBlockValidated()
	blockID, err := consensus.BlockHash(block.Header)
	if err != nil {
		return err
	}
	log.Info("block valid", zap.String("block_id", fmt.Sprintf("%x", blockID[:])), zap.Uint64("height", block.Header.BlockIndex))
	return nil
}
