package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avelero/passport-service/internal/broker"
	"github.com/avelero/passport-service/internal/catalog"
	catalogdto "github.com/avelero/passport-service/internal/catalog/dto"
	"github.com/avelero/passport-service/internal/passport"
	"go.uber.org/zap"
)

// CatalogListener consumes upstream taxonomy events so renames of shared
// catalog values propagate into the brand catalog and cached passports go
// stale immediately.
type CatalogListener struct {
	consumer  *broker.KafkaConsumer
	catalogUC catalog.UseCase
	uc        passport.UseCase
	logger    *zap.Logger
}

func NewCatalogListener(consumer *broker.KafkaConsumer, catalogUC catalog.UseCase, uc passport.UseCase, logger *zap.Logger) *CatalogListener {
	return &CatalogListener{
		consumer:  consumer,
		catalogUC: catalogUC,
		uc:        uc,
		logger:    logger,
	}
}

func (l *CatalogListener) Start(ctx context.Context) {
	l.logger.Info("Starting Catalog Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Catalog Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type catalogEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type valueRenamedPayload struct {
	BrandID    string   `json:"brand_id"`
	ValueID    string   `json:"value_id"`
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

func (l *CatalogListener) processMessage(ctx context.Context, value []byte) {
	var event catalogEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "CatalogValueRenamed" {
		return
	}

	var payload valueRenamedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		l.logger.Error("Failed to unmarshal rename payload", zap.Error(err))
		return
	}

	l.logger.Info("Processing CatalogValueRenamed event",
		zap.String("value_id", payload.ValueID),
		zap.String("name", payload.Name),
	)

	err := l.catalogUC.RenameValue(ctx, &catalogdto.RenameValueInput{
		ValueID: payload.ValueID,
		BrandID: payload.BrandID,
		Name:    payload.Name,
	})
	if err != nil {
		l.logger.Error("Failed to apply catalog rename",
			zap.String("value_id", payload.ValueID), zap.Error(err))
		return
	}

	for _, productID := range payload.ProductIDs {
		if err := l.uc.InvalidatePassport(ctx, productID); err != nil {
			l.logger.Error("Failed to invalidate passport cache",
				zap.String("product_id", productID), zap.Error(err))
		}
	}
}
