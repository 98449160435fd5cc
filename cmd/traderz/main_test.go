package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/traderz-go/e2e/traderz/mockserver"
	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"github.com/rxtech-lab/traderz-go/pkg/traderz"
	"github.com/stretchr/testify/suite"
)

type TraderzCmdTestSuite struct {
	suite.Suite
	server *mockserver.MockBrokerServer
	config mockserver.ServerConfig
}

func TestTraderzCmdSuite(t *testing.T) {
	suite.Run(t, new(TraderzCmdTestSuite))
}

func (suite *TraderzCmdTestSuite) SetupTest() {
	suite.config = mockserver.DefaultConfig()
	suite.server = mockserver.NewMockBrokerServer(suite.config)
	suite.Require().NoError(suite.server.Start(":0"))

	suite.T().Setenv(traderz.EnvBaseURL, suite.server.BaseURL())
	suite.T().Setenv(traderz.EnvBrokerID, suite.config.BrokerID)
	suite.T().Setenv(traderz.EnvSystemUUID, suite.config.SystemUUID)
	suite.T().Setenv(traderz.EnvLogLevel, "")
	suite.T().Setenv(envEmail, suite.config.Email)
	suite.T().Setenv(envPassword, suite.config.Password)
	suite.T().Setenv(envAccount, "")
}

func (suite *TraderzCmdTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Stop()
	}
}

func (suite *TraderzCmdTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = &out

	err := cmd.Run(context.Background(), append([]string{"traderz", "--env-file", filepath.Join(suite.T().TempDir(), "none.env")}, args...))

	return out.String(), err
}

func (suite *TraderzCmdTestSuite) TestDebugLogsStayOffOutput() {
	suite.T().Setenv(traderz.EnvLogLevel, "debug")

	var out, errOut bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.ErrWriter = &errOut

	err := cmd.Run(context.Background(), []string{"traderz", "--env-file", filepath.Join(suite.T().TempDir(), "none.env"), "balance"})
	suite.Require().NoError(err)

	var balance map[string]any
	suite.Require().NoError(json.Unmarshal(out.Bytes(), &balance))
	suite.Equal("USD", balance["currency"])
	suite.Contains(errOut.String(), "request completed")
}

func (suite *TraderzCmdTestSuite) TestAccounts() {
	out, err := suite.run("accounts")
	suite.Require().NoError(err)

	var accounts []traderz.AccountSummary
	suite.Require().NoError(json.Unmarshal([]byte(out), &accounts))
	suite.Len(accounts, 2)
	suite.Equal("1002", accounts[1].TradingAccountID)
}

func (suite *TraderzCmdTestSuite) TestBalanceUsesFirstAccountByDefault() {
	out, err := suite.run("balance")
	suite.Require().NoError(err)

	var balance map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &balance))
	suite.Equal("USD", balance["currency"])
}

func (suite *TraderzCmdTestSuite) TestAccountFlag() {
	out, err := suite.run("--account", "1002", "balance")
	suite.Require().NoError(err)

	var balance map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &balance))
	suite.Equal("EUR", balance["currency"])
}

func (suite *TraderzCmdTestSuite) TestUnknownAccount() {
	_, err := suite.run("--account", "9999", "positions")
	suite.Error(err)
	suite.True(errors.IsNotFoundError(err))
}

func (suite *TraderzCmdTestSuite) TestWrongPassword() {
	_, err := suite.run("--password", "wrong", "accounts")
	suite.Error(err)
	suite.True(errors.IsAuthError(err))
}

func (suite *TraderzCmdTestSuite) TestQuotes() {
	out, err := suite.run("quotes", "--symbols", "EURUSD,GBPUSD")
	suite.Require().NoError(err)

	var quotes map[string]map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &quotes))
	suite.Len(quotes, 2)

	req, ok := suite.server.LastRequest(mockserver.RouteQuotations)
	suite.Require().True(ok)
	suite.Equal("EURUSD,GBPUSD", req.Query.Get("symbols"))
}

func (suite *TraderzCmdTestSuite) TestCandles() {
	out, err := suite.run("candles", "--symbol", "EURUSD", "--interval", "H1", "--from", "2025-07-15T00:00:00Z", "--to", "2025-07-15T03:00:00Z")
	suite.Require().NoError(err)

	var candles []map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &candles))
	suite.Len(candles, 3)
}

func (suite *TraderzCmdTestSuite) TestPositionsAndOrders() {
	suite.server.AddPosition("trading-token-1001", mockserver.Position{ID: "p-1", Instrument: "EURUSD", Side: "BUY", Volume: 1})

	out, err := suite.run("positions")
	suite.Require().NoError(err)

	var positions []map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &positions))
	suite.Require().Len(positions, 1)
	suite.Equal("p-1", positions[0]["id"])

	out, err = suite.run("orders")
	suite.Require().NoError(err)

	var orders []map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &orders))
	suite.Empty(orders)

	out, err = suite.run("closed-positions", "--from", "2025-01-01", "--to", "2025-12-31")
	suite.Require().NoError(err)

	var closed []map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &closed))
	suite.Empty(closed)
}

func (suite *TraderzCmdTestSuite) TestConfigFile() {
	suite.T().Setenv(traderz.EnvBaseURL, "")

	path := filepath.Join(suite.T().TempDir(), "traderz.yaml")
	content := "base_url: " + suite.server.BaseURL() + "\nbroker_id: " + suite.config.BrokerID + "\nsystem_uuid: " + suite.config.SystemUUID + "\n"
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	out, err := suite.run("--config", path, "symbols")
	suite.Require().NoError(err)
	suite.Contains(out, "XAUUSD")
}

func (suite *TraderzCmdTestSuite) TestMissingConfig() {
	suite.T().Setenv(traderz.EnvSystemUUID, "")

	_, err := suite.run("accounts")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *TraderzCmdTestSuite) TestConfigSchema() {
	out, err := suite.run("config-schema")
	suite.Require().NoError(err)
	suite.Contains(out, "systemUuid")
}

func (suite *TraderzCmdTestSuite) TestVersion() {
	out, err := suite.run("version")
	suite.Require().NoError(err)
	suite.Contains(out, "traderz-go/")
}
