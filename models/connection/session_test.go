package connection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []OutgoingMessage
	closed bool
}

func (fc *fakeConn) WriteJSON(v interface{}) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.frames = append(fc.frames, v.(OutgoingMessage))
	return nil
}

func (fc *fakeConn) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.closed = true
	return nil
}

func (fc *fakeConn) frameTypes() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	types := make([]string, 0, len(fc.frames))
	for _, frame := range fc.frames {
		types = append(types, frame.Type)
	}
	return types
}

func (fc *fakeConn) isClosed() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.closed
}

func echoDispatch(ctx context.Context, session *Session, msg IncomingMessage) (Response, error) {
	return NewInfoResponse(msg.Type, "ok"), nil
}

func frame(t *testing.T, msgType string) []byte {
	t.Helper()
	raw, err := json.Marshal(IncomingMessage{Type: msgType})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestProcessMessagerespondsInKind(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn, echoDispatch, zap.NewNop(), false)

	session.ProcessMessage(context.Background(), frame(t, "attack"))

	types := conn.frameTypes()
	if len(types) != 1 || types[0] != "attack" {
		t.Fatalf("expected one attack response\t got: %v", types)
	}
}

func TestProcessMessageMalformedFrame(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn, echoDispatch, zap.NewNop(), false)

	session.ProcessMessage(context.Background(), []byte("{not json"))

	types := conn.frameTypes()
	if len(types) != 1 || types[0] != MsgTypeBadPayload {
		t.Fatalf("expected a %s frame\t got: %v", MsgTypeBadPayload, types)
	}
}

func TestProcessMessageBusyRejection(t *testing.T) {
	conn := &fakeConn{}
	block := make(chan struct{})
	entered := make(chan struct{})

	session := NewSession(conn, func(ctx context.Context, s *Session, msg IncomingMessage) (Response, error) {
		close(entered)
		<-block
		return NewInfoResponse(msg.Type, "done"), nil
	}, zap.NewNop(), false)

	attackFrame := frame(t, "attack")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.ProcessMessage(context.Background(), attackFrame)
	}()

	<-entered
	// second frame arrives while the first is still in its handler
	session.ProcessMessage(context.Background(), attackFrame)
	close(block)
	wg.Wait()

	types := conn.frameTypes()
	if len(types) != 2 {
		t.Fatalf("expected 2 frames\t got: %v", types)
	}
	if types[0] != MsgTypePleaseWait {
		t.Fatalf("expected %s for the overlapping frame\t got: %s", MsgTypePleaseWait, types[0])
	}
	if types[1] != "attack" {
		t.Fatalf("expected the first frame's response last\t got: %s", types[1])
	}
}

func TestSendSequenceIsMonotonic(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn, echoDispatch, zap.NewNop(), false)

	for i := 0; i < 5; i++ {
		if err := session.Send(MsgTypeHeartbeat, struct{}{}); err != nil {
			t.Fatal(err)
		}
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	var last uint64
	for _, f := range conn.frames {
		if f.Sequence <= last {
			t.Fatalf("sequence not strictly increasing: %d after %d", f.Sequence, last)
		}
		last = f.Sequence
	}
}

func TestServerErrorDetailByStage(t *testing.T) {
	failing := func(ctx context.Context, s *Session, msg IncomingMessage) (Response, error) {
		return Response{}, context.DeadlineExceeded
	}

	t.Run("prod hides detail", func(t *testing.T) {
		conn := &fakeConn{}
		session := NewSession(conn, failing, zap.NewNop(), false)
		session.ProcessMessage(context.Background(), frame(t, "attack"))

		conn.mu.Lock()
		defer conn.mu.Unlock()
		if conn.frames[0].Type != MsgTypeServerError {
			t.Fatalf("expected %s\t got: %s", MsgTypeServerError, conn.frames[0].Type)
		}
		payload := conn.frames[0].Data.(InfoPayload)
		if payload.Info == context.DeadlineExceeded.Error() {
			t.Fatal("prod stage leaked the internal error detail")
		}
	})

	t.Run("dev exposes detail", func(t *testing.T) {
		conn := &fakeConn{}
		session := NewSession(conn, failing, zap.NewNop(), true)
		session.ProcessMessage(context.Background(), frame(t, "attack"))

		conn.mu.Lock()
		defer conn.mu.Unlock()
		payload := conn.frames[0].Data.(InfoPayload)
		if payload.Info != context.DeadlineExceeded.Error() {
			t.Fatalf("expected the error detail in dev stage\t got: %q", payload.Info)
		}
	})
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	conn := &fakeConn{}
	session := NewSession(conn, echoDispatch, zap.NewNop(), false)

	session.Close()
	session.Close()

	if !session.IsClosed() {
		t.Fatal("session must report closed")
	}
	if !conn.isClosed() {
		t.Fatal("underlying connection must be closed")
	}
	if err := session.Send(MsgTypeHeartbeat, struct{}{}); err != nil {
		t.Fatal(err)
	}
	if len(conn.frameTypes()) != 0 {
		t.Fatal("closed session must not write frames")
	}
}

func TestSessionManagerBindTakeover(t *testing.T) {
	manager := NewSessionManager(time.Minute, zap.NewNop())

	oldConn := &fakeConn{}
	oldSession := NewSession(oldConn, echoDispatch, zap.NewNop(), false)
	manager.Add(oldSession)
	manager.Bind(oldSession, "player-1")

	newConn := &fakeConn{}
	newSession := NewSession(newConn, echoDispatch, zap.NewNop(), false)
	manager.Add(newSession)
	manager.Bind(newSession, "player-1")

	if !oldSession.IsClosed() {
		t.Fatal("superseded session must be closed on takeover")
	}
	if manager.Count() != 1 {
		t.Fatalf("expected 1 live session\t got: %d", manager.Count())
	}
	if got := manager.ByPlayerUuid("player-1"); got != newSession {
		t.Fatal("player must resolve to the new session")
	}
}

func TestEvictIdleSessions(t *testing.T) {
	manager := NewSessionManager(time.Millisecond*10, zap.NewNop())

	idleConn := &fakeConn{}
	idle := NewSession(idleConn, echoDispatch, zap.NewNop(), false)
	manager.Add(idle)

	time.Sleep(time.Millisecond * 20)

	activeConn := &fakeConn{}
	active := NewSession(activeConn, echoDispatch, zap.NewNop(), false)
	manager.Add(active)

	if evicted := manager.EvictIdleSessions(); evicted != 1 {
		t.Fatalf("expected 1 eviction\t got: %d", evicted)
	}
	if !idle.IsClosed() {
		t.Fatal("idle session must be closed")
	}
	if active.IsClosed() {
		t.Fatal("active session must survive the sweep")
	}
	if manager.Count() != 1 {
		t.Fatalf("expected 1 session left\t got: %d", manager.Count())
	}
}

func TestHeartbeatReachesEverySession(t *testing.T) {
	manager := NewSessionManager(time.Minute, zap.NewNop())

	conns := []*fakeConn{{}, {}}
	for _, conn := range conns {
		manager.Add(NewSession(conn, echoDispatch, zap.NewNop(), false))
	}

	manager.Heartbeat()

	for i, conn := range conns {
		types := conn.frameTypes()
		if len(types) != 1 || types[0] != MsgTypeHeartbeat {
			t.Fatalf("conn %d expected one heartbeat\t got: %v", i, types)
		}
	}
}
