package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praco-io/praco-backend/pkg/enums"
	"github.com/praco-io/praco-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryRoundTrip(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderFinalized, 1, func(payload json.RawMessage) (interface{}, error) {
		var evt payloads.OrderFinalizedEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, err
		}
		return &evt, nil
	})

	decoded, err := reg.Decode(enums.EventOrderFinalized, 1, json.RawMessage(`{"line_count":2}`))
	require.NoError(t, err)
	evt, ok := decoded.(*payloads.OrderFinalizedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, evt.LineCount)
}

func TestDecoderRegistryUnknownVersion(t *testing.T) {
	reg := NewDecoderRegistry()
	_, err := reg.Decode(enums.EventOrderFinalized, 99, json.RawMessage(`{}`))
	assert.Error(t, err)
}
