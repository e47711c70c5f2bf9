package commands

import (
	"encoding/json"
	"time"

	"encore/contexts/live-events/contest-engine/ports"
)

func newContestEnvelope(
	eventID string,
	eventType string,
	contestID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Events are partitioned by contest so per-contest consumers observe
	// phase changes and votes in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "contest-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "contest_id",
		PartitionKey:     contestID,
		Data:             payload,
	}, nil
}
