//go:build integration

package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	logger    *slog.Logger
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQIntegrationSuite))
}

func (s *RabbitMQIntegrationSuite) TestPublishNewsPosted() {
	cfg := Config{URL: s.amqpURL, Exchange: "digest-bot-test", QueueName: "digest-bot-news"}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	s.Require().NoError(pub.Publish(s.ctx, EventNewsPosted, NewsPosted{
		Title:  "Fed holds rates",
		Link:   "https://markets.example/fed",
		Source: "Markets",
	}))

	msg := s.consumeMessage(cfg.QueueName)
	s.Require().NotNil(msg)

	s.Equal(EventNewsPosted, msg.RoutingKey)
	s.Equal(uint8(amqp.Persistent), msg.DeliveryMode)
	s.NotEmpty(msg.MessageId)

	var env struct {
		Type    string     `json:"type"`
		Payload NewsPosted `json:"payload"`
	}
	s.Require().NoError(json.Unmarshal(msg.Body, &env))
	s.Equal(EventNewsPosted, env.Type)
	s.Equal("Fed holds rates", env.Payload.Title)
}

func (s *RabbitMQIntegrationSuite) TestPublishDigest() {
	cfg := Config{URL: s.amqpURL, Exchange: "digest-bot-test-2", QueueName: "digest-bot-digests"}

	pub, err := NewRabbitMQ(cfg, s.logger)
	s.Require().NoError(err)
	defer pub.Close()

	s.Require().NoError(pub.Publish(s.ctx, EventDigestPublished, DigestPublished{Slot: "evening", Items: 3, Pinned: true}))

	msg := s.consumeMessage(cfg.QueueName)
	s.Require().NotNil(msg)
	s.Equal(EventDigestPublished, msg.Type)
}

func (s *RabbitMQIntegrationSuite) consumeMessage(queue string) *amqp.Delivery {
	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	msgs, err := ch.Consume(queue, "", true, false, false, false, nil)
	s.Require().NoError(err)

	select {
	case msg := <-msgs:
		return &msg
	case <-time.After(5 * time.Second):
		s.Fail("Timeout waiting for message")
		return nil
	}
}
