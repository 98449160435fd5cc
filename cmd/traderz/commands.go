package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rxtech-lab/traderz-go/internal/logger"
	"github.com/rxtech-lab/traderz-go/internal/version"
	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"github.com/rxtech-lab/traderz-go/pkg/traderz"
	"github.com/urfave/cli/v3"
)

// Environment variables holding the login of the CLI user.
const (
	envEmail    = "TRADERZ_EMAIL"
	envPassword = "TRADERZ_PASSWORD"
	envAccount  = "TRADERZ_ACCOUNT"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "traderz",
		Usage: "Query and trade on the trading platform from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file. Environment variables override its values",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: fmt.Sprintf("Login email (defaults to $%s)", envEmail),
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: fmt.Sprintf("Login password (defaults to $%s)", envPassword),
			},
			&cli.StringFlag{
				Name:    "account",
				Aliases: []string{"a"},
				Usage:   fmt.Sprintf("Trading account id (defaults to $%s, then to the first account)", envAccount),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "accounts",
				Usage:  "List the trading accounts of the login",
				Action: accountsAction,
			},
			{
				Name:   "symbols",
				Usage:  "List the instruments of the selected account",
				Action: symbolsAction,
			},
			{
				Name:  "quotes",
				Usage: "Show current quotations",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "symbols",
						Aliases:  []string{"s"},
						Usage:    "Symbols to quote, e.g. --symbols EURUSD,GBPUSD",
						Required: true,
					},
				},
				Action: quotesAction,
			},
			{
				Name:  "candles",
				Usage: "Show candles of a symbol",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "interval", Aliases: []string{"i"}, Usage: "Candle interval, e.g. M1, M15, H1, D1", Value: "M15"},
					&cli.StringFlag{Name: "from", Usage: "Start time, e.g. 2025-07-15T00:00:00Z", Required: true},
					&cli.StringFlag{Name: "to", Usage: "End time, e.g. 2025-07-16T00:00:00Z", Required: true},
				},
				Action: candlesAction,
			},
			{
				Name:   "balance",
				Usage:  "Show the balance of the selected account",
				Action: balanceAction,
			},
			{
				Name:   "positions",
				Usage:  "List open positions",
				Action: positionsAction,
			},
			{
				Name:  "closed-positions",
				Usage: "List closed positions in a date range",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Required: true},
					&cli.StringFlag{Name: "to", Required: true},
				},
				Action: closedPositionsAction,
			},
			{
				Name:   "orders",
				Usage:  "List active pending orders",
				Action: ordersAction,
			},
			{
				Name:   "config-schema",
				Usage:  "Print the JSON schema of the config file",
				Action: configSchemaAction,
			},
			{
				Name:  "version",
				Usage: "Print the client version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintln(cmd.Root().Writer, version.UserAgent())

					return err
				},
			},
		},
	}
}

// connect loads configuration, logs in and, when selectAccount is set,
// selects the requested account or the first one.
func connect(ctx context.Context, cmd *cli.Command, selectAccount bool) (*traderz.Client, error) {
	if err := traderz.LoadDotEnv(cmd.String("env-file")); err != nil {
		return nil, err
	}

	cfg, err := traderz.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	creds := traderz.Credentials{
		Email:    flagOrEnv(cmd, "email", envEmail),
		Password: flagOrEnv(cmd, "password", envPassword),
	}

	var opts []traderz.Option
	if cfg.LogLevel != "" {
		// stdout carries the JSON results, so logs go to the error writer.
		var w io.Writer = os.Stderr
		if cmd.Root().ErrWriter != nil {
			w = cmd.Root().ErrWriter
		}
		opts = append(opts, traderz.WithLogger(logger.NewLoggerWithWriter(cfg.LogLevel, w)))
	}

	client, err := traderz.NewClient(ctx, *cfg, creds, opts...)
	if err != nil {
		return nil, err
	}

	if !selectAccount {
		return client, nil
	}

	accountID := flagOrEnv(cmd, "account", envAccount)
	if accountID == "" {
		accounts := client.ListAccounts()
		if len(accounts) == 0 {
			return nil, errors.New(errors.ErrCodeAccountNotFound, "login has no trading accounts").In(errors.ModuleAccounts)
		}

		accountID = accounts[0].TradingAccountID
	}

	if err := client.SelectAccount(accountID); err != nil {
		return nil, err
	}

	return client, nil
}

func flagOrEnv(cmd *cli.Command, flag, env string) string {
	if v := cmd.String(flag); v != "" {
		return v
	}

	return os.Getenv(env)
}

func printJSON(cmd *cli.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, string(out))

	return err
}

func accountsAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, false)
	if err != nil {
		return err
	}

	return printJSON(cmd, client.ListAccounts())
}

func symbolsAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	market, err := client.Market()
	if err != nil {
		return err
	}

	symbols, err := market.GetSymbols(ctx)
	if err != nil {
		return err
	}

	return printJSON(cmd, symbols)
}

func quotesAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	market, err := client.Market()
	if err != nil {
		return err
	}

	quotes, err := market.MarketWatch(ctx, cmd.StringSlice("symbols"))
	if err != nil {
		return err
	}

	return printJSON(cmd, quotes)
}

func candlesAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	market, err := client.Market()
	if err != nil {
		return err
	}

	candles, err := market.GetCandles(ctx, cmd.String("symbol"), cmd.String("interval"), cmd.String("from"), cmd.String("to"))
	if err != nil {
		return err
	}

	return printJSON(cmd, candles)
}

func balanceAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	market, err := client.Market()
	if err != nil {
		return err
	}

	balance, err := market.GetBalance(ctx)
	if err != nil {
		return err
	}

	return printJSON(cmd, balance)
}

func positionsAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	positions, err := client.Positions()
	if err != nil {
		return err
	}

	open, err := positions.GetOpenPositions(ctx)
	if err != nil {
		return err
	}

	return printJSON(cmd, open)
}

func closedPositionsAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	positions, err := client.Positions()
	if err != nil {
		return err
	}

	closed, err := positions.GetClosedPositions(ctx, cmd.String("from"), cmd.String("to"))
	if err != nil {
		return err
	}

	return printJSON(cmd, closed)
}

func ordersAction(ctx context.Context, cmd *cli.Command) error {
	client, err := connect(ctx, cmd, true)
	if err != nil {
		return err
	}

	orders, err := client.Orders()
	if err != nil {
		return err
	}

	active, err := orders.GetActiveOrders(ctx)
	if err != nil {
		return err
	}

	return printJSON(cmd, active)
}

func configSchemaAction(_ context.Context, cmd *cli.Command) error {
	schema, err := traderz.ConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, schema)

	return err
}
