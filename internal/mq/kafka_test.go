package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	event := contracts.StatusChangedEvent{
		StationStatusID: "status-1",
		StationID:       "station-1",
		FuelType:        contracts.FuelGasoil,
		Availability:    contracts.AvailabilityOut,
		Source:          contracts.SourcePublic,
		ContributionID:  "c-1",
		Timestamp:       time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), event.Key(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "station-1|GASOIL", string(w.msgs[0].Key))

	got, err := ParseMessageJSON[contracts.StatusChangedEvent](w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), "k", map[string]string{"a": "b"})
	assert.EqualError(t, err, "broker down")
}

func TestEncodeMessage_Unmarshalable(t *testing.T) {
	_, err := EncodeMessage("k", make(chan int))
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish(context.Background(), "k", nil))
}
