package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coinjecture.dev/consensus"
	"coinjecture.dev/metrics"
	"coinjecture.dev/node"
	"coinjecture.dev/state"
	"coinjecture.dev/storekv"
)

var coinbaseReward uint64

var applyCmd = &cobra.Command{
	Use:   "apply <block-file>",
	Short: "Validate then apply_block a stored block against the bbolt state store",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringVar(&parentHashHex, "parent-hash", "", "64-hex-char expected parent hash")
	applyCmd.Flags().Uint64Var(&expectedHeight, "height", 0, "expected block height")
	applyCmd.Flags().BoolVar(&requireContentID, "require-cid", false, "reject blocks missing a content identifier")
	applyCmd.Flags().IntVar(&minDifficultyNibble, "min-difficulty-nibbles", 0, "minimum leading zero hex nibbles in the header hash")
	applyCmd.Flags().Uint64Var(&coinbaseReward, "coinbase-reward", 0, "fixed coinbase reward credited to the miner")
}

func runApply(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	if dataDir == "" {
		dataDir = node.DefaultDataDir()
	}
	if chainIDHex == "" {
		return fmt.Errorf("--chain-id is required")
	}

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
			log.Error("critical consensus error during apply; halting", zap.String("code", string(ce.Code)), zap.Error(err))
			os.Exit(2)
		}
		return fmt.Errorf("validate block: %w", err)
	}
	metrics.ObserveBlockValidated()

	db, err := storekv.Open(dataDir, chainIDHex, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	reward := state.FixedRewardPolicy{Reward: coinbaseReward}
	applied, skipped, err := state.ApplyBlock(block, db, reward, now)
	if err != nil {
		metrics.ObserveError(err)
		return fmt.Errorf("apply block: %w", err)
	}
	metrics.ObserveBlockApplied()
	metrics.ObserveTransactionsSkipped(len(skipped))

	log.Info("block applied",
		zap.Uint64("height", block.Header.BlockIndex),
		zap.Int("applied_tx_count", len(applied)),
		zap.Int("skipped_tx_count", len(skipped)),
	)
	for _, s := range skipped {
		log.Warn("transaction skipped",
			zap.Int("index", s.Index),
			zap.String("tx_hash", fmt.Sprintf("%x", s.Hash[:])),
			zap.Error(s.Err),
		)
	}
	return nil
}
