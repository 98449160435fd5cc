package traderz_test

import (
	"context"
	"net/http/httptest"

	"github.com/rxtech-lab/traderz-go/e2e/traderz/mockserver"
	"github.com/rxtech-lab/traderz-go/pkg/traderz"
	"github.com/stretchr/testify/suite"
)

// brokerSuite runs every test against a fresh fake broker.
type brokerSuite struct {
	suite.Suite
	broker       *mockserver.MockBrokerServer
	server       *httptest.Server
	brokerConfig mockserver.ServerConfig
}

func (s *brokerSuite) SetupTest() {
	s.brokerConfig = mockserver.DefaultConfig()
	s.broker = mockserver.NewMockBrokerServer(s.brokerConfig)
	s.server = httptest.NewServer(s.broker.Handler())
}

func (s *brokerSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *brokerSuite) config() traderz.Config {
	return traderz.Config{
		BaseURL:    s.server.URL,
		BrokerID:   s.brokerConfig.BrokerID,
		SystemUUID: s.brokerConfig.SystemUUID,
		LogLevel:   "",
	}
}

func (s *brokerSuite) credentials() traderz.Credentials {
	return traderz.Credentials{
		Email:    s.brokerConfig.Email,
		Password: s.brokerConfig.Password,
	}
}

func (s *brokerSuite) newSession() *traderz.Session {
	session, err := traderz.NewSession(context.Background(), s.config(), s.credentials())
	s.Require().NoError(err)

	return session
}

// selectedSession returns a logged-in session with the first account selected.
func (s *brokerSuite) selectedSession() *traderz.Session {
	session := s.newSession()
	s.Require().NoError(session.SelectAccount("1001"))

	return session
}

func httptestServer(broker *mockserver.MockBrokerServer) *httptest.Server {
	return httptest.NewServer(broker.Handler())
}
