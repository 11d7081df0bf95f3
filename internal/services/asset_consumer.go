package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AssetMessage announces a generated asset that arrived after the webhook
// call returned
type AssetMessage struct {
	CorrelationID string `json:"correlationId"`
	AssetURL      string `json:"assetUrl"`
}

// AssetDeliverer applies late assets to open sessions
type AssetDeliverer interface {
	DeliverAsset(correlationID, assetURL string) bool
}

// DeliveryConsumer opens a delivery stream on a queue
type DeliveryConsumer interface {
	Consume(queue string) (<-chan amqp.Delivery, error)
}

// AssetConsumer reads generated assets from RabbitMQ
type AssetConsumer struct {
	broker      DeliveryConsumer
	editor      AssetDeliverer
	generations *GenerationService
	stopChan    chan struct{}
}

func NewAssetConsumer(broker DeliveryConsumer, editor AssetDeliverer, generations *GenerationService) *AssetConsumer {
	return &AssetConsumer{
		broker:      broker,
		editor:      editor,
		generations: generations,
		stopChan:    make(chan struct{}),
	}
}

// Start starts consuming the generated assets queue
func (c *AssetConsumer) Start() error {
	msgs, err := c.broker.Consume(GeneratedAssetsQueue)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logrus.Infof("RabbitMQ consumer started for %s queue", GeneratedAssetsQueue)

	go func() {
		for {
			select {
			case <-c.stopChan:
				logrus.Info("Asset consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("RabbitMQ channel closed")
					return
				}
				if err := c.process(msg.Body); err != nil {
					logrus.Errorf("Failed to process asset message: %v", err)
				}
			}
		}
	}()
	return nil
}

// Stop stops the consumer
func (c *AssetConsumer) Stop() {
	close(c.stopChan)
}

func (c *AssetConsumer) process(body []byte) error {
	var msg AssetMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal asset message: %w", err)
	}
	msg.CorrelationID = strings.TrimSpace(msg.CorrelationID)
	msg.AssetURL = strings.TrimSpace(msg.AssetURL)
	if msg.CorrelationID == "" || msg.AssetURL == "" {
		return fmt.Errorf("asset message needs correlationId and assetUrl")
	}

	if c.generations != nil {
		c.generations.MarkDelivered(context.Background(), msg.CorrelationID, msg.AssetURL)
	}
	if !c.editor.DeliverAsset(msg.CorrelationID, msg.AssetURL) {
		logrus.WithField("correlation_id", msg.CorrelationID).Debug("No open session is waiting for this asset")
	}
	return nil
}
