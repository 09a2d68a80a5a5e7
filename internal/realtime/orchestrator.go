package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/devroom/devroom/internal/ai"
	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/room"
	"github.com/devroom/devroom/internal/telemetry"
)

// TriggerToken routes a chat message to the AI adapter when present anywhere
// in the text.
const TriggerToken = "@ai"

// persistTimeout bounds the storage and broadcast steps of an AI turn.
const persistTimeout = 30 * time.Second

// MessageStore persists chat events.
type MessageStore interface {
	Append(ctx context.Context, projectID string, sender message.Sender, body string) (*message.Message, error)
}

// TreeStore applies whole-tree replacements.
type TreeStore interface {
	Replace(ctx context.Context, projectID string, tree filetree.Tree) error
}

// Broadcaster fans events out to a project's room.
type Broadcaster interface {
	BroadcastExcept(projectID string, payload []byte, except *room.Client)
	BroadcastAll(projectID string, payload []byte)
}

// Completer produces a structured completion for a prompt. It never fails;
// degraded results carry fallback text.
type Completer interface {
	Complete(ctx context.Context, prompt string) ai.Completion
}

// Orchestrator drives the per-event state machine: persist, broadcast,
// trigger-detect, and the asynchronous AI turn. Persist/broadcast pairs for
// one project are issued under that project's lock, so their order matches
// event arrival order; the lock is released for the duration of the AI call
// so other events keep flowing.
type Orchestrator struct {
	messages  MessageStore
	trees     TreeStore
	rooms     Broadcaster
	completer Completer
	logger    *slog.Logger
	aiTimeout time.Duration

	mu        sync.Mutex
	projLocks map[string]*sync.Mutex

	turns sync.WaitGroup
}

// NewOrchestrator wires the chat event control flow.
func NewOrchestrator(messages MessageStore, trees TreeStore, rooms Broadcaster, completer Completer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		messages:  messages,
		trees:     trees,
		rooms:     rooms,
		completer: completer,
		logger:    logger,
		aiTimeout: 2 * time.Minute,
		projLocks: make(map[string]*sync.Mutex),
	}
}

// messageEvent is the broadcast payload for one persisted message. FileTree
// is advisory display data on AI events; the file tree store is the source
// of truth.
type messageEvent struct {
	Sender    message.Sender `json:"sender"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"createdAt"`
	FileTree  filetree.Tree  `json:"fileTree,omitempty"`
}

// HandleChat runs the synchronous half of the state machine for one inbound
// event: persist the human message, broadcast it to the other room members,
// and kick off an AI turn if the trigger token is present. An error means
// the event was abandoned before any broadcast; it is surfaced to the origin
// only.
func (o *Orchestrator) HandleChat(ctx context.Context, origin *room.Client, projectID string, sender message.Sender, text string) error {
	lock := o.lockFor(projectID)
	lock.Lock()

	msg, err := o.messages.Append(ctx, projectID, sender, text)
	if err != nil {
		lock.Unlock()
		return err
	}
	o.rooms.BroadcastExcept(projectID, encodeMessageEvent(msg, nil), origin)
	lock.Unlock()

	telemetry.MessagesAppended.WithLabelValues(string(sender.Kind)).Inc()

	if !strings.Contains(text, TriggerToken) {
		return nil
	}

	prompt := strings.TrimSpace(strings.Replace(text, TriggerToken, "", 1))
	o.turns.Add(1)
	go o.runAITurn(projectID, prompt)
	return nil
}

// runAITurn completes the deferred half of the state machine. It runs on a
// background context: a disconnecting origin must not cancel the turn, and
// the final broadcast goes to whoever is still in the room.
func (o *Orchestrator) runAITurn(projectID, prompt string) {
	defer o.turns.Done()

	genCtx, genCancel := context.WithTimeout(context.Background(), o.aiTimeout)
	completion := o.completer.Complete(genCtx, prompt)
	genCancel()

	// Persist on a fresh context: a completer that consumed its whole
	// deadline still yields a fallback completion, and that message must
	// not be lost to the expired generation context.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	lock := o.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := o.messages.Append(ctx, projectID, message.AISender(), completion.Encode())
	if err != nil {
		o.logger.Error("ai turn: persisting message failed", "project", projectID, "error", err)
		telemetry.AITurns.WithLabelValues(telemetry.AIOutcomePersistError).Inc()
		return
	}
	telemetry.MessagesAppended.WithLabelValues(string(message.SenderAI)).Inc()

	// The tree is only ever updated from a completion whose text is already
	// durable; a failed replacement skips the remaining steps.
	if len(completion.FileTree) > 0 {
		if err := o.trees.Replace(ctx, projectID, completion.FileTree); err != nil {
			o.logger.Error("ai turn: file tree replacement failed", "project", projectID, "error", err)
			telemetry.AITurns.WithLabelValues(telemetry.AIOutcomeTreeError).Inc()
			return
		}
	}

	o.rooms.BroadcastAll(projectID, encodeMessageEvent(msg, completion.FileTree))
	telemetry.AITurns.WithLabelValues(telemetry.AIOutcomeOK).Inc()
}

// Wait blocks until all in-flight AI turns have finished.
func (o *Orchestrator) Wait() {
	o.turns.Wait()
}

func (o *Orchestrator) lockFor(projectID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.projLocks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		o.projLocks[projectID] = lock
	}
	return lock
}

func encodeMessageEvent(msg *message.Message, tree filetree.Tree) []byte {
	ev := messageEvent{
		Sender:    msg.Sender,
		Message:   msg.Body,
		CreatedAt: msg.CreatedAt,
	}
	if len(tree) > 0 {
		ev.FileTree = tree
	}
	data, _ := json.Marshal(envelope{Event: EventProjectMessage, Data: mustRaw(ev)})
	return data
}

func mustRaw(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
