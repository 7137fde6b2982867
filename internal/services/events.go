package services

//go:generate mockgen -source=events.go -destination=events_mock.go -package=services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
	"github.com/sbilibin2017/gw-recipe-book/internal/models"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// newRecipeEvent stamps an event for a completed mutation.
func newRecipeEvent(operation string, recipeID, authorID int64) models.RecipeEvent {
	return models.RecipeEvent{
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		RecipeID:  recipeID,
		AuthorID:  authorID,
		Operation: operation,
	}
}

// publishEvent publishes a recipe event to Kafka. Failures are logged only;
// the mutation it describes has already been committed.
func publishEvent(ctx context.Context, w KafkaWriter, event models.RecipeEvent) {
	if w == nil {
		logger.Log.Debugw("Kafka writer not configured, skipping publishing", "event_id", event.EventID)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal recipe event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.RecipeID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(event.Operation)},
		},
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish recipe event to Kafka", "event_id", event.EventID, "operation", event.Operation, "error", err)
	} else {
		logger.Log.Infow("Recipe event published to Kafka", "event_id", event.EventID, "operation", event.Operation, "recipe_id", event.RecipeID)
	}
}
