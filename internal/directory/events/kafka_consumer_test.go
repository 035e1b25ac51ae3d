package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockKafkaReader replays a fixed list of messages, then blocks until the
// context is cancelled.
type MockKafkaReader struct {
	mock.Mock
	messages []kafka.Message
	cancel   context.CancelFunc
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(m.messages) == 0 {
		m.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	return msg, nil
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaReader) Close() error {
	args := m.Called()
	return args.Error(0)
}

func encode(t *testing.T, e Event) []byte {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}

func TestConsumer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good := NewDirectoryChanged("db.json", "write")
	failing := NewDirectoryChanged("db.json", "remove")

	reader := &MockKafkaReader{
		cancel: cancel,
		messages: []kafka.Message{
			{Offset: 1, Value: encode(t, good)},
			{Offset: 2, Value: []byte("not json")},
			{Offset: 3, Value: encode(t, failing)},
		},
	}
	reader.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

	core, recorded := observer.New(zap.ErrorLevel)
	c := &Consumer{reader: reader, logger: zap.New(core)}

	var handled []Event
	c.RegisterHandler(func(_ context.Context, e Event) error {
		handled = append(handled, e)
		if e.Op == "remove" {
			return errors.New("handler failed")
		}
		return nil
	})

	require.NoError(t, c.Run(ctx))

	require.Len(t, handled, 2)
	assert.Equal(t, good.ID, handled[0].ID)
	assert.Equal(t, 1, recorded.FilterMessage("Failed to parse event").Len())
	assert.Equal(t, 1, recorded.FilterMessage("Failed to handle event").Len())

	// the good and the unparseable message are committed, the failed one is not
	reader.AssertNumberOfCalls(t, "CommitMessages", 2)
	reader.AssertCalled(t, "CommitMessages", mock.Anything, []kafka.Message{{Offset: 1, Value: encode(t, good)}})
	reader.AssertNotCalled(t, "CommitMessages", mock.Anything, []kafka.Message{{Offset: 3, Value: encode(t, failing)}})
}

func TestConsumer_RunWithoutHandler(t *testing.T) {
	c := &Consumer{reader: &MockKafkaReader{}, logger: zaptest.NewLogger(t)}
	assert.Error(t, c.Run(context.Background()))
}

func TestConsumer_Close(t *testing.T) {
	reader := &MockKafkaReader{}
	reader.On("Close").Return(errors.New("boom"))

	core, recorded := observer.New(zap.ErrorLevel)
	c := &Consumer{reader: reader, logger: zap.New(core)}
	c.Close()

	reader.AssertCalled(t, "Close")
	assert.Equal(t, 1, recorded.FilterMessage("Failed to close Kafka reader").Len())
}
