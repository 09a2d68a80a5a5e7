package realtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/devroom/devroom/internal/ai"
	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/room"
)

// ctxRecordingStore captures the liveness of the context each append ran on.
type ctxRecordingStore struct {
	mu      sync.Mutex
	bodies  []string
	ctxErrs []error
}

func (s *ctxRecordingStore) Append(ctx context.Context, projectID string, sender message.Sender, body string) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, body)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return &message.Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type noopTrees struct{}

func (noopTrees) Replace(context.Context, string, filetree.Tree) error { return nil }

type noopRooms struct{}

func (noopRooms) BroadcastExcept(string, []byte, *room.Client) {}
func (noopRooms) BroadcastAll(string, []byte)                  {}

// overdueCompleter ignores its deadline, like a stalled upstream.
type overdueCompleter struct {
	delay time.Duration
}

func (c overdueCompleter) Complete(_ context.Context, _ string) ai.Completion {
	time.Sleep(c.delay)
	return ai.Completion{Text: "late answer", FileTree: filetree.Tree{}}
}

func TestRunAITurn_PersistsAfterGenerationDeadline(t *testing.T) {
	store := &ctxRecordingStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewOrchestrator(store, noopTrees{}, noopRooms{}, overdueCompleter{delay: 30 * time.Millisecond}, logger)
	o.aiTimeout = 5 * time.Millisecond

	err := o.HandleChat(context.Background(), nil, uuid.NewString(),
		message.HumanSender("u1", "alice@example.com"), "@ai slow one")
	require.NoError(t, err)
	o.Wait()

	// The completion outlived the generation deadline, but its message is
	// still persisted, on a context that was alive at append time.
	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.bodies, 2)
	require.NoError(t, store.ctxErrs[1])

	decoded, err := ai.Decode(store.bodies[1])
	require.NoError(t, err)
	require.Equal(t, "late answer", decoded.Text)
}
