package client_test

import (
	"context"
	"testing"

	"github.com/rxtech-lab/traderz-go/e2e/traderz/mockserver"
	"github.com/rxtech-lab/traderz-go/pkg/traderz"
	"github.com/stretchr/testify/suite"
)

// ClientE2ETestSuite drives a Client against a running fake broker.
type ClientE2ETestSuite struct {
	suite.Suite
	server *mockserver.MockBrokerServer
	config mockserver.ServerConfig
	client *traderz.Client
}

func TestClientE2E(t *testing.T) {
	suite.Run(t, new(ClientE2ETestSuite))
}

// SetupTest starts the broker and logs in for each test.
func (s *ClientE2ETestSuite) SetupTest() {
	s.config = mockserver.DefaultConfig()
	s.server = mockserver.NewMockBrokerServer(s.config)
	s.Require().NoError(s.server.Start(":0"))

	var err error
	s.client, err = traderz.NewClient(context.Background(), traderz.Config{
		BaseURL:    s.server.BaseURL(),
		BrokerID:   s.config.BrokerID,
		SystemUUID: s.config.SystemUUID,
		LogLevel:   "error",
	}, traderz.Credentials{
		Email:    s.config.Email,
		Password: s.config.Password,
	})
	s.Require().NoError(err)
}

func (s *ClientE2ETestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Stop()
	}
}
