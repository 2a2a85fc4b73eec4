package services

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
	"github.com/example/bagswap/internal/models"
)

// LogSink persists application log entries.
type LogSink interface {
	CreateLog(ctx context.Context, l *models.AppLog) error
}

// AppLog appends inspectable events to a sink. Write failures never reach the caller.
type AppLog struct {
	sink    LogSink
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewAppLog creates an AppLog writing to sink.
func NewAppLog(sink LogSink, log logger.Logger, m *metrics.Metrics) *AppLog {
	return &AppLog{sink: sink, log: log, metrics: m}
}

func (a *AppLog) Info(ctx context.Context, message string, payload map[string]any) {
	a.write(ctx, models.LogLevelInfo, message, payload)
}

func (a *AppLog) Error(ctx context.Context, message string, payload map[string]any) {
	a.write(ctx, models.LogLevelError, message, payload)
}

func (a *AppLog) write(ctx context.Context, level, message string, payload map[string]any) {
	if a == nil || a.sink == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}

	err = a.sink.CreateLog(ctx, &models.AppLog{Level: level, Message: message, Payload: raw})
	a.metrics.AppLog(level, err)
	if err != nil {
		a.log.Warn("app log write failed", "level", level, "message", message, "error", err)
	}
}

// MongoLogSink stores application log entries in a MongoDB collection.
type MongoLogSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoLogSink connects to uri and writes to database.logs.
func NewMongoLogSink(ctx context.Context, uri, database string) (*MongoLogSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &MongoLogSink{client: client, collection: client.Database(database).Collection("logs")}, nil
}

func (s *MongoLogSink) CreateLog(ctx context.Context, l *models.AppLog) error {
	var payload any = bson.M{}
	if len(l.Payload) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(l.Payload, &decoded); err == nil {
			payload = decoded
		}
	}

	_, err := s.collection.InsertOne(ctx, bson.M{
		"level":      l.Level,
		"message":    l.Message,
		"payload":    payload,
		"created_at": time.Now().UTC(),
	})
	return err
}

// Close disconnects the client.
func (s *MongoLogSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
