// Command watch starts a monitoring session for one address and follows it
// from the terminal until the payment confirms, fails, or the user aborts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitagora/paywatch/internal/price"
	"github.com/bitagora/paywatch/pkg/client"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "paywatch server base URL")
		address  = flag.String("address", "", "Bitcoin address to watch (required)")
		amount   = flag.Int64("amount", 0, "expected amount in satoshis (or use -usd)")
		usd      = flag.Float64("usd", 0, "expected amount in USD, converted at the current rate")
		api      = flag.String("provider", "", "blockchain API: mempool, blockcypher, blockchair, mock (server default if empty)")
		interval = flag.Duration("interval", 10*time.Second, "client poll interval")
	)
	flag.Parse()

	if *address == "" || (*amount <= 0 && *usd <= 0) {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*server)

	// A USD amount without explicit sats is converted at the server's
	// current BTC/USD quote.
	if *amount <= 0 {
		quote, err := c.GetPrice(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to fetch BTC price: %v\n", err)
			os.Exit(1)
		}
		sats, err := price.USDToSats(*usd, quote.BTCUSD)
		if err != nil || sats <= 0 {
			fmt.Fprintf(os.Stderr, "cannot convert %.2f USD at rate %.2f\n", *usd, quote.BTCUSD)
			os.Exit(1)
		}
		fmt.Printf("%.2f USD = %d sats at %.2f USD/BTC\n", *usd, sats, quote.BTCUSD)
		*amount = sats
	}

	req := client.StartRequest{
		Address:        *address,
		ExpectedAmount: *amount,
		USDAmount:      *usd,
	}
	if *api != "" {
		req.Config = &client.Config{BlockchainAPI: api}
	}

	watcher := client.NewWatcher(c, client.Callbacks{
		OnReceived: func(s *client.Session) {
			fmt.Printf("payment received: %d sats (waiting for %d confirmation(s))\n",
				s.ReceivedAmount, s.TargetConfirmations)
		},
		OnConfirmed: func(s *client.Session) {
			fmt.Printf("payment confirmed: %d sats after %d confirmation(s)\n",
				s.ReceivedAmount, s.Confirmations)
		},
		OnFailed: func(s *client.Session) {
			fmt.Println("payment failed: no payment arrived before the timeout")
		},
		OnUpdate: func(s *client.Session) {
			fmt.Printf("status=%s received=%d/%d confirmations=%d/%d\n",
				s.Status, s.ReceivedAmount, s.ExpectedAmount,
				s.Confirmations, s.TargetConfirmations)
		},
	}, client.WithPollInterval(*interval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := watcher.Start(ctx, req); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start monitoring: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Stop()

	fmt.Printf("watching %s for %d sats (poll every %s, ctrl-c to stop)\n",
		*address, *amount, *interval)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Done fires on any loop exit: terminal status, a session the server no
	// longer knows about, or cancellation. The watch can never hang here.
	select {
	case <-watcher.Done():
	case <-sigs:
		fmt.Println("interrupted, stopping watch")
	}
}
