package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/skybook/config"
	"github.com/Domenick1991/skybook/internal/email"
	"github.com/Domenick1991/skybook/internal/kafka"
	"github.com/Domenick1991/skybook/internal/logging"
	"github.com/Domenick1991/skybook/internal/rabbitmq"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := email.NewSender(logger)

	switch cfg.Events.Broker {
	case config.BrokerKafka:
		topic := cfg.Kafka.NotificationsTopic
		if topic == "" {
			topic = cfg.Kafka.BookingTopic
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, logger)
		defer consumer.Close()

		logger.Info("worker consuming", zap.String("broker", "kafka"), zap.String("topic", topic))
		err = consumer.ConsumeBookingEvents(ctx, sender.Send)
	case config.BrokerRabbitMQ:
		consumer := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)

		logger.Info("worker consuming", zap.String("broker", "rabbitmq"), zap.String("queue", cfg.RabbitMQ.Queue))
		err = consumer.Consume(ctx, sender.Send)
	default:
		logger.Info("events disabled, nothing to consume")
		<-ctx.Done()
		return
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("consumer stopped", zap.Error(err))
	}
	logger.Info("worker stopped")
}
