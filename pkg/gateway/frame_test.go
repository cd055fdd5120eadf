package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		wantEvent string
		wantSeq   int64
		wantData  string
		wantErr   error
	}{
		{
			name:      "dispatch frame",
			raw:       `{"op":0,"t":"MESSAGE_CREATE","s":42,"d":{"id":"1","channel_id":"2"}}`,
			wantEvent: "MESSAGE_CREATE",
			wantSeq:   42,
			wantData:  `{"id":"1","channel_id":"2"}`,
		},
		{
			name:    "heartbeat has no event name",
			raw:     `{"op":1,"t":null,"s":null,"d":41}`,
			wantErr: ErrNotADispatch,
		},
		{
			name:    "missing t key",
			raw:     `{"op":11}`,
			wantErr: ErrNotADispatch,
		},
		{
			name:    "invalid JSON",
			raw:     `{"t":"READY"`,
			wantErr: errors.New("parse frame: invalid JSON"),
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			frame, err := ParseFrame([]byte(testCase.raw))
			if testCase.wantErr != nil {
				require.Error(t, err)
				if errors.Is(testCase.wantErr, ErrNotADispatch) {
					assert.ErrorIs(t, err, ErrNotADispatch)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.wantEvent, frame.Event)
			assert.Equal(t, testCase.wantSeq, frame.Sequence)
			assert.JSONEq(t, testCase.wantData, string(frame.Payload))
		})
	}
}

func TestParseFrameNullPayload(t *testing.T) {
	t.Parallel()

	frame, err := ParseFrame([]byte(`{"t":"RESUMED","s":7,"d":null}`))
	require.NoError(t, err)
	assert.Equal(t, "RESUMED", frame.Event)
	assert.Nil(t, frame.Payload)
}
