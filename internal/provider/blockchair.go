package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bitagora/paywatch/internal/config"
)

// blockchairResponse is the Blockchair dashboard endpoint response.
// The dashboard combines the address summary and its outputs in one read.
type blockchairResponse struct {
	Data    map[string]blockchairAddressData `json:"data"`
	Context blockchairContext                `json:"context"`
}

type blockchairContext struct {
	Code  int   `json:"code"`
	State int64 `json:"state"` // current chain tip height
}

type blockchairAddressData struct {
	Address blockchairAddress `json:"address"`
	UTXOs   []blockchairUTXO  `json:"utxo"`
}

type blockchairAddress struct {
	Balance  int64 `json:"balance"`
	Received int64 `json:"received"`
	Spent    int64 `json:"spent"`
}

type blockchairUTXO struct {
	BlockID         int64  `json:"block_id"` // -1 while in mempool
	TransactionHash string `json:"transaction_hash"`
	Index           int    `json:"index"`
	Value           int64  `json:"value"`
}

// BlockchairChecker normalizes address data from the Blockchair dashboard API.
type BlockchairChecker struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewBlockchairChecker creates a Blockchair checker for the given network.
func NewBlockchairChecker(client *http.Client, network, apiKey string) *BlockchairChecker {
	baseURL := config.BlockchairMainnetURL
	if network == config.NetworkTestnet {
		baseURL = config.BlockchairTestnetURL
	}

	slog.Info("blockchair checker created",
		"network", network,
		"baseURL", baseURL,
		"hasKey", apiKey != "",
	)

	return &BlockchairChecker{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (c *BlockchairChecker) Name() string { return config.APIBlockchair }

// CheckAddress fetches the dashboard view for the address. Confirmation
// counts are derived from the chain tip in the response context. The
// dashboard only lists unspent outputs, which is sufficient here: a payment
// output spent away no longer counts toward the watched balance anyway.
func (c *BlockchairChecker) CheckAddress(ctx context.Context, address string) (*AddressInfo, error) {
	url := fmt.Sprintf("%s/dashboards/address/%s", c.baseURL, address)
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}

	body, err := doGet(ctx, c.client, c.Name(), url)
	if err != nil {
		return nil, err
	}

	var resp blockchairResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Provider: c.Name(), Message: "parse dashboard response: " + err.Error()}
	}

	data, ok := resp.Data[address]
	if !ok {
		return nil, &Error{Provider: c.Name(), Message: fmt.Sprintf("dashboard response missing address %s", address)}
	}

	info := &AddressInfo{
		Address:       address,
		Balance:       data.Address.Balance,
		TotalReceived: data.Address.Received,
		TotalSent:     data.Address.Spent,
	}

	for _, utxo := range data.UTXOs {
		confirmations := 0
		blockHeight := int64(0)
		if utxo.BlockID > 0 && resp.Context.State >= utxo.BlockID {
			confirmations = int(resp.Context.State - utxo.BlockID + 1)
			blockHeight = utxo.BlockID
		} else {
			info.UnconfirmedBalance += utxo.Value
		}

		info.Transactions = append(info.Transactions, Transaction{
			ID:            utxo.TransactionHash,
			Amount:        utxo.Value,
			Confirmations: confirmations,
			BlockHeight:   blockHeight,
			OutputIndex:   utxo.Index,
		})
	}

	slog.Debug("blockchair address checked",
		"address", address,
		"matchingOutputs", len(info.Transactions),
		"tipHeight", resp.Context.State,
	)
	return info, nil
}
