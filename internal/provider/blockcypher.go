package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bitagora/paywatch/internal/config"
)

// blockcypherAddr is the BlockCypher combined address endpoint response.
// Incoming payments appear as txrefs with tx_output_n >= 0; input refs
// (spends) carry tx_output_n == -1.
type blockcypherAddr struct {
	Address            string             `json:"address"`
	TotalReceived      int64              `json:"total_received"`
	TotalSent          int64              `json:"total_sent"`
	Balance            int64              `json:"balance"`
	UnconfirmedBalance int64              `json:"unconfirmed_balance"`
	TxRefs             []blockcypherTxRef `json:"txrefs"`
	UnconfirmedTxRefs  []blockcypherTxRef `json:"unconfirmed_txrefs"`
}

type blockcypherTxRef struct {
	TxHash        string    `json:"tx_hash"`
	BlockHeight   int64     `json:"block_height"`
	TxInputN      int       `json:"tx_input_n"`
	TxOutputN     int       `json:"tx_output_n"`
	Value         int64     `json:"value"`
	Confirmations int       `json:"confirmations"`
	Confirmed     time.Time `json:"confirmed"`
	Received      time.Time `json:"received"`
	DoubleSpend   bool      `json:"double_spend"`
}

// BlockCypherChecker normalizes address data from the BlockCypher API.
// A single combined endpoint covers both the summary and the transaction list.
type BlockCypherChecker struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewBlockCypherChecker creates a BlockCypher checker for the given network.
// The API token is optional (anonymous access is rate limited harder).
func NewBlockCypherChecker(client *http.Client, network, token string) *BlockCypherChecker {
	baseURL := config.BlockCypherMainnetURL
	if network == config.NetworkTestnet {
		baseURL = config.BlockCypherTestnetURL
	}

	slog.Info("blockcypher checker created",
		"network", network,
		"baseURL", baseURL,
		"hasToken", token != "",
	)

	return &BlockCypherChecker{
		client:  client,
		baseURL: baseURL,
		token:   token,
	}
}

func (c *BlockCypherChecker) Name() string { return config.APIBlockCypher }

// CheckAddress fetches the combined address view and keeps output-side refs.
func (c *BlockCypherChecker) CheckAddress(ctx context.Context, address string) (*AddressInfo, error) {
	url := fmt.Sprintf("%s/addrs/%s?limit=200", c.baseURL, address)
	if c.token != "" {
		url += "&token=" + c.token
	}

	body, err := doGet(ctx, c.client, c.Name(), url)
	if err != nil {
		return nil, err
	}

	var addr blockcypherAddr
	if err := json.Unmarshal(body, &addr); err != nil {
		return nil, &Error{Provider: c.Name(), Message: "parse address response: " + err.Error()}
	}

	info := &AddressInfo{
		Address:            address,
		Balance:            addr.Balance,
		TotalReceived:      addr.TotalReceived,
		TotalSent:          addr.TotalSent,
		UnconfirmedBalance: addr.UnconfirmedBalance,
	}

	for _, ref := range addr.TxRefs {
		if tx, ok := normalizeTxRef(ref); ok {
			info.Transactions = append(info.Transactions, tx)
		}
	}
	for _, ref := range addr.UnconfirmedTxRefs {
		if tx, ok := normalizeTxRef(ref); ok {
			info.Transactions = append(info.Transactions, tx)
		}
	}

	slog.Debug("blockcypher address checked",
		"address", address,
		"matchingOutputs", len(info.Transactions),
	)
	return info, nil
}

// normalizeTxRef converts one txref into a Transaction.
// Returns false for input-side refs and flagged double spends.
func normalizeTxRef(ref blockcypherTxRef) (Transaction, bool) {
	if ref.TxOutputN < 0 || ref.DoubleSpend {
		return Transaction{}, false
	}

	blockHeight := ref.BlockHeight
	if blockHeight < 0 {
		blockHeight = 0 // -1 marks mempool-only refs
	}

	var ts int64
	switch {
	case !ref.Confirmed.IsZero():
		ts = ref.Confirmed.Unix()
	case !ref.Received.IsZero():
		ts = ref.Received.Unix()
	}

	return Transaction{
		ID:            ref.TxHash,
		Amount:        ref.Value,
		Confirmations: ref.Confirmations,
		BlockHeight:   blockHeight,
		Timestamp:     ts,
		OutputIndex:   ref.TxOutputN,
	}, true
}
