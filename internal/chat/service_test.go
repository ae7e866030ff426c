package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/voxcastlabs/voxcast-core/internal/bus"
	"github.com/voxcastlabs/voxcast-core/internal/config"
	"github.com/voxcastlabs/voxcast-core/internal/natsserver"
	"github.com/voxcastlabs/voxcast-core/internal/protocol"
)

type recordingHandler struct {
	mu          sync.Mutex
	redemptions []protocol.Redemption
	bits        []protocol.Bits
	infos       []protocol.StreamInfo
}

func (h *recordingHandler) HandleRedemption(_ context.Context, ev protocol.Redemption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redemptions = append(h.redemptions, ev)
}

func (h *recordingHandler) HandleBits(_ context.Context, ev protocol.Bits) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bits = append(h.bits, ev)
}

func (h *recordingHandler) HandleSub(context.Context, protocol.Sub)                    {}
func (h *recordingHandler) HandleResub(context.Context, protocol.Sub)                  {}
func (h *recordingHandler) HandleSubGift(context.Context, protocol.SubGift)            {}
func (h *recordingHandler) HandleCommunityGift(context.Context, protocol.CommunityGift) {}
func (h *recordingHandler) HandlePrimeUpgrade(context.Context, protocol.PrimeUpgrade)  {}
func (h *recordingHandler) HandleGiftUpgrade(context.Context, protocol.GiftUpgrade)    {}

func (h *recordingHandler) HandleStreamInfo(info protocol.StreamInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.infos = append(h.infos, info)
}

func (h *recordingHandler) redemptionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redemptions)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startTestBus(t *testing.T) *bus.Client {
	t.Helper()
	srv, err := natsserver.Start(config.BusConfig{Embedded: true, Port: -1}, testLogger())
	if err != nil {
		t.Fatalf("start embedded nats: %v", err)
	}
	t.Cleanup(srv.Shutdown)

	client, err := bus.Connect(config.BusConfig{
		Servers:        []string{srv.ClientURL()},
		ConnectTimeout: 2000,
	}, testLogger())
	if err != nil {
		t.Fatalf("connect bus: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestServiceDispatchesRedemption(t *testing.T) {
	client := startTestBus(t)
	handler := &recordingHandler{}

	svc := NewService(context.Background(), config.ChatConfig{
		Channel: "streamer",
		Events:  config.ChatEvents{Redemption: true},
	}, client, handler, testLogger())
	if err := svc.Start(); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Close)

	payload, _ := json.Marshal(protocol.Redemption{
		User:        "Alice",
		RewardTitle: "Talk to the AI",
		Message:     "I have 5 cats",
	})
	if err := client.Conn().Publish(protocol.SubjectRedemption, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, func() bool { return handler.redemptionCount() == 1 })

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if handler.redemptions[0].User != "Alice" || handler.redemptions[0].Message != "I have 5 cats" {
		t.Fatalf("unexpected event %+v", handler.redemptions[0])
	}
}

func TestServiceIgnoresDisabledEvents(t *testing.T) {
	client := startTestBus(t)
	handler := &recordingHandler{}

	svc := NewService(context.Background(), config.ChatConfig{
		Events: config.ChatEvents{Redemption: true, Bits: false},
	}, client, handler, testLogger())
	if err := svc.Start(); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Close)

	payload, _ := json.Marshal(protocol.Bits{User: "Bob", Bits: 500})
	if err := client.Conn().Publish(protocol.SubjectBits, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := client.Conn().Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.bits) != 0 {
		t.Fatalf("bits handler should not fire when disabled, got %+v", handler.bits)
	}
}

func TestServiceSayPublishesChatMessage(t *testing.T) {
	client := startTestBus(t)
	handler := &recordingHandler{}

	svc := NewService(context.Background(), config.ChatConfig{Channel: "streamer"}, client, handler, testLogger())
	if err := svc.Start(); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Close)

	received := make(chan protocol.ChatMessage, 1)
	sub, err := client.Conn().Subscribe(protocol.SubjectSay, func(msg *nats.Msg) {
		var cm protocol.ChatMessage
		if err := json.Unmarshal(msg.Data, &cm); err == nil {
			received <- cm
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	t.Cleanup(func() { _ = sub.Drain() })

	if err := svc.Say("streamer", "hello chat"); err != nil {
		t.Fatalf("say: %v", err)
	}

	select {
	case cm := <-received:
		if cm.Channel != "streamer" || cm.Text != "hello chat" {
			t.Fatalf("unexpected message %+v", cm)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no chat message received")
	}
}
