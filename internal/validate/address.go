package validate

import (
	"fmt"
	"log/slog"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/bitagora/paywatch/internal/config"
)

// Address uses btcutil.DecodeAddress to fully validate a Bitcoin address,
// including checksum verification for bech32 addresses, and verifies the
// address belongs to the specified network.
func Address(addr, network string) error {
	slog.Debug("validating address",
		"address", addr,
		"network", network,
	)

	var params *chaincfg.Params
	switch network {
	case config.NetworkMainnet:
		params = &chaincfg.MainNetParams
	case config.NetworkTestnet:
		params = &chaincfg.TestNet3Params
	default:
		return fmt.Errorf("unsupported network %q", network)
	}

	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	if !decoded.IsForNet(params) {
		return fmt.Errorf("invalid address %q: address is not for %s network", addr, network)
	}

	return nil
}
