package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/devroom/devroom/internal/realtime"
	"github.com/devroom/devroom/internal/room"
)

type appendCall struct {
	projectID string
	sender    message.Sender
	body      string
}

type fakeStore struct {
	mu      sync.Mutex
	appends []appendCall
	failAI  bool
	failAll bool
}

func (s *fakeStore) Append(_ context.Context, projectID string, sender message.Sender, body string) (*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll || (s.failAI && sender.Kind == message.SenderAI) {
		return nil, errors.New("append failed")
	}
	s.appends = append(s.appends, appendCall{projectID, sender, body})
	return &message.Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *fakeStore) calls() []appendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appendCall(nil), s.appends...)
}

type fakeTrees struct {
	mu       sync.Mutex
	replaces []filetree.Tree
	fail     bool
}

func (f *fakeTrees) Replace(_ context.Context, _ string, tree filetree.Tree) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("replace failed")
	}
	f.replaces = append(f.replaces, tree)
	return nil
}

func (f *fakeTrees) trees() []filetree.Tree {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]filetree.Tree(nil), f.replaces...)
}

type fakeRooms struct {
	mu       sync.Mutex
	toOthers [][]byte
	toAll    [][]byte
}

func (r *fakeRooms) BroadcastExcept(_ string, payload []byte, _ *room.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toOthers = append(r.toOthers, payload)
}

func (r *fakeRooms) BroadcastAll(_ string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toAll = append(r.toAll, payload)
}

func (r *fakeRooms) counts() (others, all int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.toOthers), len(r.toAll)
}

type fakeCompleter struct {
	mu     sync.Mutex
	prompt string
	calls  int
	result ai.Completion
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string) ai.Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	c.calls++
	return c.result
}

// gatedCompleter blocks each Complete call until the test releases the gate
// for its prompt, signalling entry on started.
type gatedCompleter struct {
	started chan string
	gates   map[string]chan ai.Completion
}

func (c *gatedCompleter) Complete(_ context.Context, prompt string) ai.Completion {
	c.started <- prompt
	return <-c.gates[prompt]
}

type wireEvent struct {
	Event string `json:"event"`
	Data  struct {
		Sender    message.Sender `json:"sender"`
		Message   string         `json:"message"`
		CreatedAt time.Time      `json:"createdAt"`
		FileTree  filetree.Tree  `json:"fileTree"`
	} `json:"data"`
}

func decodeEvent(t *testing.T, payload []byte) wireEvent {
	t.Helper()
	var ev wireEvent
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

func newTestOrchestrator(store *fakeStore, trees *fakeTrees, rooms *fakeRooms, completer realtime.Completer) *realtime.Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return realtime.NewOrchestrator(store, trees, rooms, completer, logger)
}

func TestOrchestrator_PlainMessage(t *testing.T) {
	store := &fakeStore{}
	trees := &fakeTrees{}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{}
	o := newTestOrchestrator(store, trees, rooms, completer)

	projectID := uuid.NewString()
	sender := message.HumanSender("u1", "alice@example.com")

	err := o.HandleChat(context.Background(), nil, projectID, sender, "just chatting")
	require.NoError(t, err)
	o.Wait()

	calls := store.calls()
	require.Len(t, calls, 1)
	require.Equal(t, "just chatting", calls[0].body)
	require.Equal(t, message.SenderHuman, calls[0].sender.Kind)

	others, all := rooms.counts()
	require.Equal(t, 1, others, "human message goes to the other room members")
	require.Equal(t, 0, all)
	require.Equal(t, 0, completer.calls, "no trigger, no AI call")

	ev := decodeEvent(t, rooms.toOthers[0])
	require.Equal(t, realtime.EventProjectMessage, ev.Event)
	require.Equal(t, "just chatting", ev.Data.Message)
	require.Equal(t, "u1", ev.Data.Sender.ID)
	require.Empty(t, ev.Data.FileTree)
}

func TestOrchestrator_TriggeredTurn(t *testing.T) {
	completionTree := filetree.Tree{
		"index.js": {File: filetree.Contents{Contents: "console.log('hi')"}},
	}
	store := &fakeStore{}
	trees := &fakeTrees{}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{result: ai.Completion{Text: "built it", FileTree: completionTree}}
	o := newTestOrchestrator(store, trees, rooms, completer)

	projectID := uuid.NewString()
	sender := message.HumanSender("u1", "alice@example.com")

	err := o.HandleChat(context.Background(), nil, projectID, sender, "@ai build an app")
	require.NoError(t, err)
	o.Wait()

	require.Equal(t, 1, completer.calls)
	require.Equal(t, "build an app", completer.prompt, "trigger token is stripped from the prompt")

	calls := store.calls()
	require.Len(t, calls, 2, "human message then AI message")
	require.Equal(t, message.SenderHuman, calls[0].sender.Kind)
	require.Equal(t, message.SenderAI, calls[1].sender.Kind)
	require.Equal(t, message.AISenderID, calls[1].sender.ID)

	// The AI message body is the serialized completion
	decoded, err := ai.Decode(calls[1].body)
	require.NoError(t, err)
	require.Equal(t, "built it", decoded.Text)
	require.Equal(t, completionTree, decoded.FileTree)

	require.Equal(t, []filetree.Tree{completionTree}, trees.trees())

	others, all := rooms.counts()
	require.Equal(t, 1, others)
	require.Equal(t, 1, all, "AI message goes to everyone, origin included")

	ev := decodeEvent(t, rooms.toAll[0])
	require.Equal(t, realtime.EventProjectMessage, ev.Event)
	require.Equal(t, message.AISenderContact, ev.Data.Sender.Contact)
	require.Equal(t, completionTree, ev.Data.FileTree)
}

func TestOrchestrator_TriggerInMiddleOfText(t *testing.T) {
	store := &fakeStore{}
	trees := &fakeTrees{}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{result: ai.Completion{Text: "ok"}}
	o := newTestOrchestrator(store, trees, rooms, completer)

	err := o.HandleChat(context.Background(), nil, uuid.NewString(),
		message.HumanSender("u1", "a"), "hey @ai can you help")
	require.NoError(t, err)
	o.Wait()

	require.Equal(t, 1, completer.calls)
	require.Equal(t, "hey  can you help", completer.prompt)
}

func TestOrchestrator_EmptyTreeSkipsReplacement(t *testing.T) {
	store := &fakeStore{}
	trees := &fakeTrees{}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{result: ai.Completion{Text: "just an answer", FileTree: filetree.Tree{}}}
	o := newTestOrchestrator(store, trees, rooms, completer)

	err := o.HandleChat(context.Background(), nil, uuid.NewString(),
		message.HumanSender("u1", "a"), "@ai what is Go")
	require.NoError(t, err)
	o.Wait()

	require.Empty(t, trees.trees(), "an empty tree never overwrites the stored one")

	_, all := rooms.counts()
	require.Equal(t, 1, all)

	ev := decodeEvent(t, rooms.toAll[0])
	require.Empty(t, ev.Data.FileTree)
}

func TestOrchestrator_EventsDuringTurnKeepArrivalOrder(t *testing.T) {
	store := &fakeStore{}
	rooms := &fakeRooms{}
	completer := &gatedCompleter{
		started: make(chan string, 1),
		gates:   map[string]chan ai.Completion{"build": make(chan ai.Completion)},
	}
	o := newTestOrchestrator(store, &fakeTrees{}, rooms, completer)

	projectID := uuid.NewString()
	sender := message.HumanSender("u1", "alice@example.com")

	require.NoError(t, o.HandleChat(context.Background(), nil, projectID, sender, "@ai build"))

	// The turn is now blocked inside the completer with the project lock
	// released; further events on the project keep flowing.
	require.Equal(t, "build", <-completer.started)

	require.NoError(t, o.HandleChat(context.Background(), nil, projectID, sender, "second"))
	require.NoError(t, o.HandleChat(context.Background(), nil, projectID, sender, "third"))

	completer.gates["build"] <- ai.Completion{Text: "done"}
	o.Wait()

	// Arrival order is the persisted order, with the AI message landing
	// after everything appended while its turn was outstanding.
	calls := store.calls()
	require.Len(t, calls, 4)
	require.Equal(t, "@ai build", calls[0].body)
	require.Equal(t, "second", calls[1].body)
	require.Equal(t, "third", calls[2].body)
	require.Equal(t, message.SenderAI, calls[3].sender.Kind)

	others, all := rooms.counts()
	require.Equal(t, 3, others)
	require.Equal(t, 1, all)
}

func TestOrchestrator_ProjectsResolveIndependently(t *testing.T) {
	store := &fakeStore{}
	completer := &gatedCompleter{
		started: make(chan string, 2),
		gates: map[string]chan ai.Completion{
			"first":  make(chan ai.Completion),
			"second": make(chan ai.Completion),
		},
	}
	o := newTestOrchestrator(store, &fakeTrees{}, &fakeRooms{}, completer)

	p1 := uuid.NewString()
	p2 := uuid.NewString()
	sender := message.HumanSender("u1", "alice@example.com")

	require.NoError(t, o.HandleChat(context.Background(), nil, p1, sender, "@ai first"))
	require.NoError(t, o.HandleChat(context.Background(), nil, p2, sender, "@ai second"))

	<-completer.started
	<-completer.started

	// Resolve the later turn first: one project's slow turn never holds
	// up another project's.
	completer.gates["second"] <- ai.Completion{Text: "two"}
	require.Eventually(t, func() bool {
		return len(store.calls()) == 3
	}, time.Second, 5*time.Millisecond)

	completer.gates["first"] <- ai.Completion{Text: "one"}
	o.Wait()

	calls := store.calls()
	require.Len(t, calls, 4)
	require.Equal(t, p2, calls[2].projectID)
	require.Equal(t, message.SenderAI, calls[2].sender.Kind)
	require.Equal(t, p1, calls[3].projectID)
	require.Equal(t, message.SenderAI, calls[3].sender.Kind)

	// Each project's own sequence stays append-ordered: human then AI
	perProject := map[string][]appendCall{}
	for _, c := range calls {
		perProject[c.projectID] = append(perProject[c.projectID], c)
	}
	for _, seq := range perProject {
		require.Len(t, seq, 2)
		require.Equal(t, message.SenderHuman, seq[0].sender.Kind)
		require.Equal(t, message.SenderAI, seq[1].sender.Kind)
	}
}

func TestOrchestrator_PersistFailureSkipsBroadcast(t *testing.T) {
	store := &fakeStore{failAll: true}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{}
	o := newTestOrchestrator(store, &fakeTrees{}, rooms, completer)

	err := o.HandleChat(context.Background(), nil, uuid.NewString(),
		message.HumanSender("u1", "a"), "@ai hello")
	require.Error(t, err)
	o.Wait()

	others, all := rooms.counts()
	require.Equal(t, 0, others, "unpersisted messages are never broadcast")
	require.Equal(t, 0, all)
	require.Equal(t, 0, completer.calls, "abandoned events never reach the AI")
}

func TestOrchestrator_AIPersistFailureSkipsTreeAndBroadcast(t *testing.T) {
	store := &fakeStore{failAI: true}
	trees := &fakeTrees{}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{result: ai.Completion{
		Text:     "built it",
		FileTree: filetree.Tree{"a.txt": {File: filetree.Contents{Contents: "x"}}},
	}}
	o := newTestOrchestrator(store, trees, rooms, completer)

	err := o.HandleChat(context.Background(), nil, uuid.NewString(),
		message.HumanSender("u1", "a"), "@ai build")
	require.NoError(t, err)
	o.Wait()

	require.Empty(t, trees.trees(), "tree only changes after the AI message is durable")

	others, all := rooms.counts()
	require.Equal(t, 1, others, "the human message still went out")
	require.Equal(t, 0, all, "the failed AI turn is silent")
}

func TestOrchestrator_TreeFailureSkipsBroadcast(t *testing.T) {
	store := &fakeStore{}
	trees := &fakeTrees{fail: true}
	rooms := &fakeRooms{}
	completer := &fakeCompleter{result: ai.Completion{
		Text:     "built it",
		FileTree: filetree.Tree{"a.txt": {File: filetree.Contents{Contents: "x"}}},
	}}
	o := newTestOrchestrator(store, trees, rooms, completer)

	err := o.HandleChat(context.Background(), nil, uuid.NewString(),
		message.HumanSender("u1", "a"), "@ai build")
	require.NoError(t, err)
	o.Wait()

	_, all := rooms.counts()
	require.Equal(t, 0, all)
}
