package client

import (
	"context"
	"meshwar/pkg/kafka"
	"meshwar/pkg/logger"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const disconnectTimeout = 10 * time.Second

// Client owns the process-wide handles to external services. It is built once in main
// and passed down; nothing in the module keeps a package-level connection.
type Client struct {
	Mongo    *mongo.Client
	Producer *kafka.Producer
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetProducer(log *logger.Logger, brokers []string, topic string) {
	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(brokers, topic), log)
	if err != nil {
		log.Fatal("Failed to create Kafka producer", "error", err, "topic", topic)
	}
	producer.Use(kafka.LoggingProducerMiddleware(log))

	log.Info("Kafka producer configured", "brokers", brokers, "topic", topic)
	c.Producer = producer
}

func (c *Client) GracefulShutdown(log *logger.Logger) {
	if c.Producer != nil {
		if err := c.Producer.Close(); err != nil {
			log.Error("Failed to close Kafka producer", "error", err)
		}
	}

	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
			return
		}
		log.Info("Disconnected from MongoDB")
	}
}
