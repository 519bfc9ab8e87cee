// Package node carries the ambient configuration consensus-core host
// processes (the CLI, a future full node) need but that stays out of the
// pure core: data directory layout, bind address, peer list, and
// block-validation policy knobs.
package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the host-side configuration for a COINjecture consensus
// process: which chain it serves, where its state lives, and the block
// validation policy it enforces.
type Config struct {
	Network              string   `json:"network"`
	ChainIDHex           string   `json:"chain_id_hex"`
	DataDir              string   `json:"data_dir"`
	BindAddr             string   `json:"bind_addr"`
	LogLevel             string   `json:"log_level"`
	Peers                []string `json:"peers"`
	MaxPeers             int      `json:"max_peers"`
	RequireContentID     bool     `json:"require_content_id"`
	MinDifficultyNibbles int      `json:"min_difficulty_nibbles"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".coinjecture"
	}
	return filepath.Join(home, ".coinjecture")
}

func DefaultConfig() Config {
	return Config{
		Network:              "devnet",
		DataDir:              DefaultDataDir(),
		BindAddr:             "0.0.0.0:27150",
		Peers:                nil,
		LogLevel:             "info",
		MaxPeers:             64,
		RequireContentID:     false,
		MinDifficultyNibbles: 0,
	}
}

// WallClockNow supplies the wall-clock input to block validation as Unix
// seconds, matching the int64 BlockHeader.Timestamp and ValidateBlock's
// now parameter.
func WallClockNow() int64 {
	return time.Now().Unix()
}

func NormalizePeers(raw ...string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		for _, p := range strings.Split(token, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Network) == "" {
		return errors.New("network is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if err := validateAddr(cfg.BindAddr); err != nil {
		return fmt.Errorf("invalid bind_addr: %w", err)
	}
	for _, peer := range cfg.Peers {
		if err := validatePeerAddr(peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", peer, err)
		}
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.MaxPeers <= 0 {
		return errors.New("max_peers must be > 0")
	}
	if cfg.MaxPeers > 4096 {
		return errors.New("max_peers must be <= 4096")
	}
	if cfg.ChainIDHex != "" {
		if len(cfg.ChainIDHex) != 64 {
			return fmt.Errorf("chain_id_hex must be 64 hex characters, got %d", len(cfg.ChainIDHex))
		}
		for _, r := range cfg.ChainIDHex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return fmt.Errorf("chain_id_hex contains non-hex character %q", r)
			}
		}
	}
	if cfg.MinDifficultyNibbles < 0 || cfg.MinDifficultyNibbles > 64 {
		return errors.New("min_difficulty_nibbles must be between 0 and 64")
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}

func validatePeerAddr(addr string) error {
	if err := validateAddr(addr); err != nil {
		return err
	}
	host, _, _ := net.SplitHostPort(addr)
	if strings.TrimSpace(host) == "" {
		return errors.New("missing host")
	}
	return nil
}
