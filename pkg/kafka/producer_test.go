package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souqly/storefront-backend/pkg/config"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := NewProducer(config.KafkaConfig{Brokers: []string{" "}, OrdersTopic: "orders"}, nil)
	require.Error(t, err)

	_, err = NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.Error(t, err)
}

func TestRecordHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, recordHeaders(nil))

	headers := recordHeaders(map[string]string{"event_type": "order.placed"})
	require.Len(t, headers, 1)
	assert.Equal(t, "event_type", headers[0].Key)
	assert.Equal(t, []byte("order.placed"), headers[0].Value)
}
