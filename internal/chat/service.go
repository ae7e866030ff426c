package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/voxcastlabs/voxcast-core/internal/bus"
	"github.com/voxcastlabs/voxcast-core/internal/config"
	"github.com/voxcastlabs/voxcast-core/internal/protocol"
)

// An event sequence may include synthesis, playback and reply generation;
// the timeout bounds hung remote calls without cutting normal pipelines.
const eventTimeout = 2 * time.Minute

// Handler is the single entry point events are dispatched to, regardless of
// which transport delivered them.
type Handler interface {
	HandleRedemption(ctx context.Context, ev protocol.Redemption)
	HandleBits(ctx context.Context, ev protocol.Bits)
	HandleSub(ctx context.Context, ev protocol.Sub)
	HandleResub(ctx context.Context, ev protocol.Sub)
	HandleSubGift(ctx context.Context, ev protocol.SubGift)
	HandleCommunityGift(ctx context.Context, ev protocol.CommunityGift)
	HandlePrimeUpgrade(ctx context.Context, ev protocol.PrimeUpgrade)
	HandleGiftUpgrade(ctx context.Context, ev protocol.GiftUpgrade)
	HandleStreamInfo(info protocol.StreamInfo)
}

// Sender posts messages back to the chat platform.
type Sender interface {
	Say(channel, text string) error
}

// Service bridges the chat-platform connector on the bus to the pipeline.
type Service struct {
	cfg     config.ChatConfig
	bus     *bus.Client
	handler Handler
	subs    []*nats.Subscription
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	ready   bool
	logger  *slog.Logger
}

func NewService(parent context.Context, cfg config.ChatConfig, busClient *bus.Client, handler Handler, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:     cfg,
		bus:     busClient,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(slog.String("component", "chat-service")),
	}
}

func (s *Service) Start() error {
	ev := s.cfg.Events
	bindings := []struct {
		enabled   bool
		subscribe func() (*nats.Subscription, error)
	}{
		{ev.Redemption, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectRedemption, s.handler.HandleRedemption)
		}},
		{ev.Bits, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectBits, s.handler.HandleBits)
		}},
		{ev.Sub, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectSub, s.handler.HandleSub)
		}},
		{ev.Resub, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectResub, s.handler.HandleResub)
		}},
		{ev.SubGift, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectSubGift, s.handler.HandleSubGift)
		}},
		{ev.CommunityGift, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectCommunityGift, s.handler.HandleCommunityGift)
		}},
		{ev.PrimeUpgrade, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectPrimeUpgrade, s.handler.HandlePrimeUpgrade)
		}},
		{ev.GiftUpgrade, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectGiftUpgrade, s.handler.HandleGiftUpgrade)
		}},
		{true, func() (*nats.Subscription, error) {
			return subscribeJSON(s, protocol.SubjectStreamInfo, func(_ context.Context, info protocol.StreamInfo) {
				s.handler.HandleStreamInfo(info)
			})
		}},
	}

	for _, binding := range bindings {
		if !binding.enabled {
			continue
		}
		sub, err := binding.subscribe()
		if err != nil {
			s.Close()
			return fmt.Errorf("subscribe chat events: %w", err)
		}
		s.subs = append(s.subs, sub)
	}
	s.ready = true
	return nil
}

func (s *Service) Close() {
	s.cancel()
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return s.ready
}

// Say publishes an outgoing chat message for the connector to post.
func (s *Service) Say(channel, text string) error {
	return publishSay(s.bus, channel, text)
}

// BusSender posts chat messages without holding the subscription side of
// the service.
type BusSender struct {
	bus *bus.Client
}

func NewBusSender(busClient *bus.Client) *BusSender {
	return &BusSender{bus: busClient}
}

func (s *BusSender) Say(channel, text string) error {
	return publishSay(s.bus, channel, text)
}

func publishSay(busClient *bus.Client, channel, text string) error {
	data, err := json.Marshal(protocol.ChatMessage{Channel: channel, Text: text})
	if err != nil {
		return err
	}
	return busClient.Conn().Publish(protocol.SubjectSay, data)
}

func subscribeJSON[T any](s *Service, subject string, handle func(context.Context, T)) (*nats.Subscription, error) {
	return s.bus.Conn().Subscribe(subject, func(msg *nats.Msg) {
		var ev T
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.logger.Warn("failed to decode chat event",
				slog.String("subject", subject),
				slog.String("error", err.Error()))
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(s.ctx, eventTimeout)
			defer cancel()
			handle(ctx, ev)
		}()
	})
}
