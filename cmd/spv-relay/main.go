package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"btcspv.dev/bridge/btcspv"
	"btcspv.dev/bridge/node"
	"btcspv.dev/bridge/node/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults, err := node.ConfigFromEnv(node.DefaultConfig())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "env config: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("spv-relay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg := defaults
	fs.StringVar(&cfg.Network, "network", defaults.Network, "bitcoin network (mainnet/testnet/regtest)")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "relay data directory")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.IntVar(&cfg.Confirmations, "confirmations", defaults.Confirmations, "confirmations a payment's block needs, counting the block itself")
	initHeader := fs.String("init-header", "", "hex checkpoint header to initialize an empty relay with")
	initHeight := fs.Uint("init-height", 0, "height of the checkpoint header")
	headersPath := fs.String("headers", "", "file of hex headers, one per line, to submit")
	proofPath := fs.String("proof", "", "JSON SPV proof file to verify against the relay")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := node.ValidateConfig(cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if *initHeight > 0xffffffff {
		_, _ = fmt.Fprintf(stderr, "invalid config: init-height %d out of range\n", *initHeight)
		return 2
	}
	if err := printJSON(stdout, cfg); err != nil {
		_, _ = fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}
	if *dryRun {
		return 0
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		_, _ = fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}

	log := node.NewLogger(cfg.LogLevel, stderr)
	db, err := store.Open(cfg.DataDir, cfg.Network)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer func() { _ = db.Close() }()

	relay, err := node.NewRelay(cfg.Network, db, log)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "relay init failed: %v\n", err)
		return 2
	}
	verifier, err := node.NewPaymentVerifier(cfg, db, log)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "verifier init failed: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *initHeader != "" {
		raw, err := btcspv.DeserializeHex(strings.TrimSpace(*initHeader))
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "init-header: %v\n", err)
			return 2
		}
		if err := relay.Initialize(ctx, raw, uint32(*initHeight)); err != nil { // #nosec G115 -- range checked above.
			_, _ = fmt.Fprintf(stderr, "initialize failed: %v\n", err)
			return 1
		}
	}

	if *headersPath != "" {
		packed, err := node.LoadHeaderFile(*headersPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "headers: %v\n", err)
			return 2
		}
		if _, err := relay.SubmitHeaders(ctx, packed); err != nil {
			_, _ = fmt.Fprintf(stderr, "submit headers failed: %v\n", err)
			return 1
		}
	}

	tip, err := relay.Tip(ctx)
	switch {
	case errors.Is(err, node.ErrNotInitialized):
		_, _ = fmt.Fprintln(stdout, "relay: empty")
	case err != nil:
		_, _ = fmt.Fprintf(stderr, "tip read failed: %v\n", err)
		return 2
	default:
		_, _ = fmt.Fprintf(stdout, "relay: tip_height=%d tip_hash=%s cumulative_difficulty=%s\n",
			tip.Height, btcspv.SerializeHex(btcspv.ReverseEndianness(tip.HashLE[:])), tip.CumulativeDifficulty)
	}

	if *proofPath != "" {
		proof, err := node.LoadProofFile(*proofPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "proof: %v\n", err)
			return 2
		}
		payment, err := verifier.VerifyPayment(ctx, proof)
		if err != nil {
			if code, ok := btcspv.ErrorCodeOf(err); ok {
				_, _ = fmt.Fprintf(stderr, "proof rejected: %s\n", code)
			} else {
				_, _ = fmt.Fprintf(stderr, "proof rejected: %v\n", err)
			}
			return 1
		}
		if err := printJSON(stdout, payment); err != nil {
			_, _ = fmt.Fprintf(stderr, "payment encode failed: %v\n", err)
			return 1
		}
	}
	return 0
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
