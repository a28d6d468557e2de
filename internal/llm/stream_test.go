package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestReadAll(t *testing.T) {
	got, err := NewStreamFromChunks([]string{"Rule ", "passed", ""}).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Rule passed", got)

	got, err = NewStreamFromString("single").ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "single", got)
}

func TestReadAll_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewStreamFromError(boom).ReadAll()
	assert.ErrorIs(t, err, boom)
}

func TestReadAll_ErrorMidStream(t *testing.T) {
	boom := errors.New("stalled")
	ch := make(chan TextStreamEvent, 3)
	ch <- TextStreamEvent{Type: EventTypeText, Value: "partial"}
	ch <- TextStreamEvent{Type: EventTypeError, Value: boom}
	ch <- TextStreamEvent{Type: EventTypeEnd}
	close(ch)

	_, err := (&TextStreamResult{Stream: ch}).ReadAll()
	assert.ErrorIs(t, err, boom)
}

func TestReadAll_ClosedWithoutEnd(t *testing.T) {
	ch := make(chan TextStreamEvent, 1)
	ch <- TextStreamEvent{Type: EventTypeText, Value: "tail"}
	close(ch)

	got, err := (&TextStreamResult{Stream: ch}).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "tail", got)
}

func TestSend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan TextStreamEvent)

	done := make(chan bool)
	go func() {
		done <- Send(ctx, out, TextStreamEvent{Type: EventTypeText, Value: "x"})
	}()
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after cancellation")
	}
}

func TestCompletionRequest_System(t *testing.T) {
	req := CompletionRequest{Messages: []Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
	}}
	assert.Equal(t, "a\n\nb", req.System())
	assert.Equal(t, "", CompletionRequest{}.System())
}

func TestOptions(t *testing.T) {
	cfg := LanguageModelConfig{}
	for _, opt := range []LanguageModelOption{WithModel("m"), WithMaxGeneratedTokens(12), WithTemperature(0)} {
		opt(&cfg)
	}
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, 12, cfg.MaxGeneratedTokens)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, 0.0, *cfg.Temperature)
}
