package notice

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	messages [][]byte
}

func (r *recordingBroadcaster) Broadcast(message []byte) {
	r.messages = append(r.messages, message)
}

func TestBoard_PushAndDrain(t *testing.T) {
	rec := &recordingBroadcaster{}
	b := NewBoard(rec)

	b.Error("Failed to upload photos")
	b.Success("Photos uploaded successfully!")

	notices := b.Drain()
	require.Len(t, notices, 2)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Equal(t, "Photos uploaded successfully!", notices[1].Message)
	assert.Empty(t, b.Drain())

	require.Len(t, rec.messages, 2)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(rec.messages[0], &msg))
	assert.Equal(t, "notice", msg["type"])
	assert.Equal(t, "error", msg["level"])
	assert.Equal(t, "Failed to upload photos", msg["message"])
}

func TestBoard_BoundsBacklog(t *testing.T) {
	b := NewBoard(nil)
	for i := 0; i < maxPending+5; i++ {
		b.Info(fmt.Sprintf("n%d", i))
	}

	notices := b.Drain()
	require.Len(t, notices, maxPending)
	assert.Equal(t, "n5", notices[0].Message)
}
