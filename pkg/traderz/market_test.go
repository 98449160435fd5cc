package traderz_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/traderz-go/e2e/traderz/mockserver"
	"github.com/rxtech-lab/traderz-go/mocks"
	"github.com/rxtech-lab/traderz-go/pkg/errors"
	"github.com/rxtech-lab/traderz-go/pkg/traderz"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type MarketTestSuite struct {
	brokerSuite
	ctrl *gomock.Controller
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func (suite *MarketTestSuite) SetupTest() {
	suite.brokerSuite.SetupTest()
	suite.ctrl = gomock.NewController(suite.T())
}

func (suite *MarketTestSuite) TearDownTest() {
	suite.ctrl.Finish()
	suite.brokerSuite.TearDownTest()
}

func (suite *MarketTestSuite) newMarket() (*traderz.Market, *traderz.Session) {
	session := suite.selectedSession()
	market, err := traderz.NewMarket(session, session.Endpoint())
	suite.Require().NoError(err)

	return market, session
}

func (suite *MarketTestSuite) TestGetSymbols() {
	market, _ := suite.newMarket()

	symbols, err := market.GetSymbols(context.Background())
	suite.Require().NoError(err)
	suite.Len(symbols, 3)
	suite.Equal("EURUSD", symbols[0]["symbol"])
	suite.Equal(json.Number("4"), symbols[0]["pipPosition"])

	req, ok := suite.broker.LastRequest(mockserver.RouteEffectiveInstruments)
	suite.Require().True(ok)
	suite.Equal(http.MethodGet, req.Method)
	suite.Equal("/mtr-api/system-uuid-1/effective-instruments", req.Path)
	suite.Equal("trading-token-1001", req.Header.Get("Auth-trading-api"))
	suite.Equal("co-auth="+suite.brokerConfig.Token, req.Header.Get("Cookie"))
	suite.Equal("application/json", req.Header.Get("Accept"))
	suite.Equal("application/json", req.Header.Get("Content-Type"))
}

func (suite *MarketTestSuite) TestMarketWatch() {
	market, _ := suite.newMarket()

	quotes, err := market.MarketWatch(context.Background(), []string{"EURUSD", "GBPUSD"})
	suite.Require().NoError(err)
	suite.Len(quotes, 2)
	suite.Equal("GBPUSD", quotes["GBPUSD"]["symbol"])

	req, ok := suite.broker.LastRequest(mockserver.RouteQuotations)
	suite.Require().True(ok)
	suite.Equal("EURUSD,GBPUSD", req.Query.Get("symbols"))
}

func (suite *MarketTestSuite) TestGetCandles() {
	market, _ := suite.newMarket()

	candles, err := market.GetCandles(context.Background(), "EURUSD", "M15", "2025-07-15T00:00:00Z", "2025-07-15T01:00:00Z")
	suite.Require().NoError(err)
	suite.Len(candles, 4)

	req, ok := suite.broker.LastRequest(mockserver.RouteCandles)
	suite.Require().True(ok)
	suite.Equal("EURUSD", req.Query.Get("symbol"))
	suite.Equal("M15", req.Query.Get("interval"))
	suite.Equal("2025-07-15T00:00:00Z", req.Query.Get("from"))
	suite.Equal("2025-07-15T01:00:00Z", req.Query.Get("to"))
}

func (suite *MarketTestSuite) TestGetCandlesRejected() {
	market, _ := suite.newMarket()

	_, err := market.GetCandles(context.Background(), "EURUSD", "bogus", "2025-07-15T00:00:00Z", "2025-07-15T01:00:00Z")
	suite.Error(err)

	httpErr, ok := errors.AsHTTPError(err)
	suite.Require().True(ok)
	suite.Equal(http.StatusBadRequest, httpErr.StatusCode)
	suite.Equal(errors.ModuleMarket, httpErr.Module)
	suite.Contains(httpErr.Body, "invalid interval")
}

func (suite *MarketTestSuite) TestGetBalance() {
	market, _ := suite.newMarket()

	balance, err := market.GetBalance(context.Background())
	suite.Require().NoError(err)
	suite.Equal("USD", balance["currency"])
	suite.Equal(json.Number("10000"), balance["balance"])
}

func (suite *MarketTestSuite) TestNon2xxBecomesHTTPError() {
	market, _ := suite.newMarket()
	suite.broker.SetFailure(mockserver.RouteBalance, http.StatusBadGateway, "upstream down")

	_, err := market.GetBalance(context.Background())
	suite.Error(err)
	suite.Equal(errors.ErrCodeHTTPStatus, errors.GetCode(err))
	suite.Equal(errors.ModuleMarket, errors.GetModule(err))

	httpErr, ok := errors.AsHTTPError(err)
	suite.Require().True(ok)
	suite.Equal(http.StatusBadGateway, httpErr.StatusCode)
	suite.Equal("upstream down", httpErr.Body)
}

func (suite *MarketTestSuite) TestUndecodableBody() {
	market, _ := suite.newMarket()
	suite.broker.SetFailure(mockserver.RouteEffectiveInstruments, http.StatusOK, "not json")

	_, err := market.GetSymbols(context.Background())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDecodeFailed))
	suite.Equal(errors.ModuleMarket, errors.GetModule(err))
}

func (suite *MarketTestSuite) TestFollowsAccountReselection() {
	market, session := suite.newMarket()

	suite.Require().NoError(session.SelectAccount("1002"))

	balance, err := market.GetBalance(context.Background())
	suite.Require().NoError(err)
	suite.Equal("EUR", balance["currency"])

	req, ok := suite.broker.LastRequest(mockserver.RouteBalance)
	suite.Require().True(ok)
	suite.Equal("trading-token-1002", req.Account)
}

func (suite *MarketTestSuite) TestRequiresSelectedAccount() {
	session := suite.newSession()

	_, err := traderz.NewMarket(session, session.Endpoint())
	suite.Error(err)
	suite.True(errors.IsNotSelectedError(err))
	suite.Equal(errors.ModuleMarket, errors.GetModule(err))

	_, err = traderz.NewMarket(nil, session.Endpoint())
	suite.True(errors.IsNotSelectedError(err))
}

func (suite *MarketTestSuite) TestFailsWhenSourceLosesToken() {
	session := suite.newSession()
	source := mocks.NewMockAccountSource(suite.ctrl)

	account := traderz.TradingAccount{
		TradingAccountID: "1001",
		TradingAPIToken:  "trading-token-1001",
		Offer:            traderz.Offer{UUID: "offer-uuid-1", Name: "Standard"},
	}
	source.EXPECT().SelectedAccount().Return(optional.Some(account)).AnyTimes()
	source.EXPECT().Token().Return(optional.None[string]()).Times(1)

	market, err := traderz.NewMarket(source, session.Endpoint())
	suite.Require().NoError(err)

	requestsBefore := len(suite.broker.Requests())

	_, err = market.GetSymbols(context.Background())
	suite.Error(err)
	suite.True(errors.IsAuthError(err))
	suite.Equal(errors.ModuleMarket, errors.GetModule(err))
	suite.Len(suite.broker.Requests(), requestsBefore)
}

func (suite *MarketTestSuite) TestFailsWhenSourceLosesSelection() {
	session := suite.newSession()
	source := mocks.NewMockAccountSource(suite.ctrl)

	account := traderz.TradingAccount{TradingAccountID: "1001", TradingAPIToken: "trading-token-1001"}
	gomock.InOrder(
		source.EXPECT().SelectedAccount().Return(optional.Some(account)),
		source.EXPECT().SelectedAccount().Return(optional.None[traderz.TradingAccount]()),
	)
	source.EXPECT().Token().Return(optional.Some(suite.brokerConfig.Token)).AnyTimes()

	market, err := traderz.NewMarket(source, session.Endpoint())
	suite.Require().NoError(err)

	_, err = market.GetBalance(context.Background())
	suite.Error(err)
	suite.True(errors.IsNotSelectedError(err))
	suite.Equal(errors.ModuleMarket, errors.GetModule(err))
}

func (suite *MarketTestSuite) TestReadsSourceOnEveryCall() {
	session := suite.newSession()
	source := mocks.NewMockAccountSource(suite.ctrl)

	account := traderz.TradingAccount{TradingAccountID: "1001", TradingAPIToken: "trading-token-1001"}
	source.EXPECT().SelectedAccount().Return(optional.Some(account)).Times(3)
	source.EXPECT().Token().Return(optional.Some(suite.brokerConfig.Token)).Times(2)

	market, err := traderz.NewMarket(source, session.Endpoint())
	suite.Require().NoError(err)

	_, err = market.GetBalance(context.Background())
	suite.Require().NoError(err)
	_, err = market.GetSymbols(context.Background())
	suite.Require().NoError(err)
}
