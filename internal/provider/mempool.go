package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bitagora/paywatch/internal/config"
)

// esploraAddress is the Esplora address summary response.
type esploraAddress struct {
	Address      string       `json:"address"`
	ChainStats   esploraStats `json:"chain_stats"`
	MempoolStats esploraStats `json:"mempool_stats"`
}

type esploraStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int   `json:"tx_count"`
}

type esploraTx struct {
	TxID   string          `json:"txid"`
	Status esploraTxStatus `json:"status"`
	Vout   []esploraVout   `json:"vout"`
}

type esploraTxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int64  `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

type esploraVout struct {
	ScriptPubKeyAddr string `json:"scriptpubkey_address"`
	Value            int64  `json:"value"`
}

// MempoolChecker normalizes address data from the Mempool.space Esplora API.
type MempoolChecker struct {
	client  *http.Client
	baseURL string
}

// NewMempoolChecker creates a Mempool.space checker for the given network.
func NewMempoolChecker(client *http.Client, network string) *MempoolChecker {
	baseURL := config.MempoolMainnetURL
	if network == config.NetworkTestnet {
		baseURL = config.MempoolTestnetURL
	}

	slog.Info("mempool checker created",
		"network", network,
		"baseURL", baseURL,
	)

	return &MempoolChecker{
		client:  client,
		baseURL: baseURL,
	}
}

func (c *MempoolChecker) Name() string { return config.APIMempool }

// CheckAddress performs the two Esplora reads (address summary, address
// transactions) plus a tip-height read used to derive confirmation counts,
// and filters the transaction list down to outputs paying the address.
func (c *MempoolChecker) CheckAddress(ctx context.Context, address string) (*AddressInfo, error) {
	tip, err := c.tipHeight(ctx)
	if err != nil {
		return nil, err
	}

	body, err := doGet(ctx, c.client, c.Name(), fmt.Sprintf("%s/address/%s", c.baseURL, address))
	if err != nil {
		return nil, err
	}
	var summary esploraAddress
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, &Error{Provider: c.Name(), Message: "parse address summary: " + err.Error()}
	}

	body, err = doGet(ctx, c.client, c.Name(), fmt.Sprintf("%s/address/%s/txs", c.baseURL, address))
	if err != nil {
		return nil, err
	}
	var txs []esploraTx
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, &Error{Provider: c.Name(), Message: "parse address transactions: " + err.Error()}
	}

	info := &AddressInfo{
		Address:            address,
		Balance:            summary.ChainStats.FundedTxoSum - summary.ChainStats.SpentTxoSum,
		TotalReceived:      summary.ChainStats.FundedTxoSum,
		TotalSent:          summary.ChainStats.SpentTxoSum,
		UnconfirmedBalance: summary.MempoolStats.FundedTxoSum - summary.MempoolStats.SpentTxoSum,
	}

	for _, tx := range txs {
		for i, vout := range tx.Vout {
			if !strings.EqualFold(vout.ScriptPubKeyAddr, address) {
				continue
			}

			confirmations := 0
			if tx.Status.Confirmed && tip >= tx.Status.BlockHeight {
				confirmations = int(tip - tx.Status.BlockHeight + 1)
			}

			info.Transactions = append(info.Transactions, Transaction{
				ID:            tx.TxID,
				Amount:        vout.Value,
				Confirmations: confirmations,
				BlockHeight:   tx.Status.BlockHeight,
				BlockHash:     tx.Status.BlockHash,
				Timestamp:     tx.Status.BlockTime,
				OutputIndex:   i,
			})
		}
	}

	slog.Debug("mempool address checked",
		"address", address,
		"matchingOutputs", len(info.Transactions),
		"tipHeight", tip,
	)
	return info, nil
}

// tipHeight returns the current chain tip height (plain-text endpoint).
func (c *MempoolChecker) tipHeight(ctx context.Context) (int64, error) {
	body, err := doGet(ctx, c.client, c.Name(), c.baseURL+"/blocks/tip/height")
	if err != nil {
		return 0, err
	}

	tip, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, &Error{Provider: c.Name(), Message: "parse tip height: " + err.Error()}
	}
	return tip, nil
}
