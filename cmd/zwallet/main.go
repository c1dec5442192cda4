package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/LeakIX/zcash-web-wallet/pkg/keys"
	"github.com/LeakIX/zcash-web-wallet/pkg/network"
	"github.com/LeakIX/zcash-web-wallet/pkg/scan"
	"github.com/LeakIX/zcash-web-wallet/pkg/tx"
	"github.com/LeakIX/zcash-web-wallet/pkg/wallet"
)

var networkFlag = &cli.StringFlag{
	Name:    "network",
	Aliases: []string{"n"},
	Usage:   "network to operate on (mainnet or testnet)",
	Value:   "mainnet",
	EnvVars: []string{"ZWALLET_NETWORK"},
}

func main() {
	app := &cli.App{
		Name:    "zwallet",
		Usage:   "derive shielded wallet credentials and scan transactions",
		Version: "0.1.0",
		Flags:   []cli.Flag{networkFlag},
		Commands: []*cli.Command{
			generateCmd(),
			restoreCmd(),
			decodeCmd(),
			scanCmd(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("command failed")
	}
}

func resolveNetwork(ctx *cli.Context) (network.Network, error) {
	return network.Parse(ctx.String("network"))
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate a fresh wallet from new entropy",
		Action: func(ctx *cli.Context) error {
			net, err := resolveNetwork(ctx)
			if err != nil {
				return err
			}
			entropy := make([]byte, 32)
			if _, err := rand.Read(entropy); err != nil {
				return err
			}
			info, err := wallet.New(net, nil).Generate(entropy)
			if err != nil {
				return err
			}
			return printJSON(info)
		},
	}
}

func restoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "restore a wallet from a 24-word seed phrase",
		ArgsUsage: "\"word1 word2 ... word24\"",
		Action: func(ctx *cli.Context) error {
			net, err := resolveNetwork(ctx)
			if err != nil {
				return err
			}
			phrase := strings.Join(ctx.Args().Slice(), " ")
			if phrase == "" {
				return fmt.Errorf("missing seed phrase argument")
			}
			info, err := wallet.New(net, nil).Restore(phrase)
			if err != nil {
				return err
			}
			return printJSON(info)
		},
	}
}

func decodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode a hex-encoded transaction and print its txid and structure",
		ArgsUsage: "<tx-hex>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one transaction argument")
			}
			t, err := tx.DecodeHex(ctx.Args().First())
			if err != nil {
				return err
			}
			return printJSON(summarize(t))
		},
	}
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "scan a hex-encoded transaction with a viewing key",
		ArgsUsage: "<tx-hex>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "viewing-key",
				Aliases:  []string{"k"},
				Usage:    "unified or legacy Sapling viewing key",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			net, err := resolveNetwork(ctx)
			if err != nil {
				return err
			}
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one transaction argument")
			}
			vk, err := keys.ParseViewingKey(ctx.String("viewing-key"), net)
			if err != nil {
				return err
			}
			t, err := tx.DecodeHex(ctx.Args().First())
			if err != nil {
				return err
			}
			res, err := scan.New(net, vk, nil).Scan(t)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

type txSummary struct {
	TxID               string `json:"txid"`
	Version            uint32 `json:"version"`
	Branch             string `json:"consensus_branch"`
	LockTime           uint32 `json:"lock_time"`
	ExpiryHeight       uint32 `json:"expiry_height"`
	TransparentInputs  int    `json:"transparent_inputs"`
	TransparentOutputs int    `json:"transparent_outputs"`
	SaplingSpends      int    `json:"sapling_spends"`
	SaplingOutputs     int    `json:"sapling_outputs"`
	OrchardActions     int    `json:"orchard_actions"`
}

func summarize(t *tx.Transaction) txSummary {
	s := txSummary{
		TxID:         t.TxIDString(),
		Version:      t.Version,
		Branch:       t.Branch.String(),
		LockTime:     t.LockTime,
		ExpiryHeight: t.ExpiryHeight,
	}
	if t.Transparent != nil {
		s.TransparentInputs = len(t.Transparent.Inputs)
		s.TransparentOutputs = len(t.Transparent.Outputs)
	}
	if t.Sapling != nil {
		s.SaplingSpends = len(t.Sapling.Spends)
		s.SaplingOutputs = len(t.Sapling.Outputs)
	}
	if t.Orchard != nil {
		s.OrchardActions = len(t.Orchard.Actions)
	}
	return s
}
