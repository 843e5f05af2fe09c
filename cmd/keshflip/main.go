// Command keshflip issues signed read and cancel calls against the KeshPay
// API. Credentials come from KESHFLIP_* variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thechainkeshflip/keshflip-go/config"
	"github.com/thechainkeshflip/keshflip-go/pkg/keshflip"
	"github.com/thechainkeshflip/keshflip-go/pkg/logger"
)

const usage = `usage: keshflip [-partner ID] [-v] <command> [args]

commands:
  balances [chainId asset]   list balances, or one balance
  deposit <id>               show a crypto deposit
  deposits [status]          list crypto deposits
  fiat-deposit <id>          show a fiat deposit
  withdrawal <id>            show a crypto withdrawal
  cancel-withdrawal <id>     cancel a pending withdrawal
`

var errUsage = errors.New("bad usage")

func main() {
	partnerID := flag.String("partner", "", "partner id, overrides KESHFLIP_PARTNER_ID")
	verbose := flag.Bool("v", false, "log requests to stderr")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Setup(logger.Options{Level: level, Console: true, Output: os.Stderr})

	cfg, err := config.NewClient()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	if *partnerID != "" {
		cfg.PartnerID = *partnerID
	}

	client, err := keshflip.New(cfg.SDK())
	if err != nil {
		log.Fatalf("Client error: %s", err)
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, client, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *keshflip.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	var (
		result any
		err    error
	)
	switch cmd, rest := args[0], args[1:]; {
	case cmd == "balances" && len(rest) == 0:
		result, err = client.Crypto.Balances.List(ctx, "")
	case cmd == "balances" && len(rest) == 2:
		result, err = client.Crypto.Balances.Get(ctx, rest[0], rest[1], "")
	case cmd == "deposit" && len(rest) == 1:
		result, err = client.Crypto.Deposits.Get(ctx, rest[0])
	case cmd == "deposits" && len(rest) <= 1:
		params := keshflip.ListCryptoDepositsParams{}
		if len(rest) == 1 {
			params.Status = rest[0]
		}
		result, err = client.Crypto.Deposits.List(ctx, params)
	case cmd == "fiat-deposit" && len(rest) == 1:
		result, err = client.Fiat.Deposits.Get(ctx, rest[0])
	case cmd == "withdrawal" && len(rest) == 1:
		result, err = client.Crypto.Withdrawals.Get(ctx, rest[0])
	case cmd == "cancel-withdrawal" && len(rest) == 1:
		result, err = client.Crypto.Withdrawals.Cancel(ctx, rest[0])
	default:
		return fmt.Errorf("%w: %q", errUsage, args[0])
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
