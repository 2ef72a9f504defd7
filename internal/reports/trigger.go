package reports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Request asks the report worker to generate the monthly report.
// Timestamp determines which month is reported on, the worker uses
// the month before it.
type Request struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload"`
}

// RequestPayload identifies monthly report requests on the queue.
const RequestPayload = "monthly-report"

// Publisher sends a message to the report queue. Implemented by
// Client, replaced in tests.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Trigger publishes monthly report requests.
type Trigger struct {
	publisher Publisher
}

func NewTrigger(publisher Publisher) *Trigger {
	return &Trigger{publisher: publisher}
}

// PublishMonthly puts a report request for the previous month on the
// queue. Delivery is at least once, the worker has to tolerate
// duplicates.
func (t *Trigger) PublishMonthly(ctx context.Context) error {
	request := Request{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Payload:   RequestPayload,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	err = t.publisher.Publish(ctx, body)
	if err != nil {
		log.Error().Err(err).Stringer("id", request.ID).Msg("could not publish report request")
		return err
	}

	reportTriggerCount.Inc()
	log.Info().Stringer("id", request.ID).Time("timestamp", request.Timestamp).Msg("published report request")

	return nil
}
