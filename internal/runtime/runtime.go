package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/voxcastlabs/voxcast-core/internal/audio"
	"github.com/voxcastlabs/voxcast-core/internal/bus"
	"github.com/voxcastlabs/voxcast-core/internal/chat"
	"github.com/voxcastlabs/voxcast-core/internal/config"
	"github.com/voxcastlabs/voxcast-core/internal/eventstore"
	"github.com/voxcastlabs/voxcast-core/internal/ingress"
	"github.com/voxcastlabs/voxcast-core/internal/moderation"
	"github.com/voxcastlabs/voxcast-core/internal/natsserver"
	"github.com/voxcastlabs/voxcast-core/internal/pipeline"
	"github.com/voxcastlabs/voxcast-core/internal/prompts"
	"github.com/voxcastlabs/voxcast-core/internal/reply"
	"github.com/voxcastlabs/voxcast-core/internal/tts"
)

// Runtime assembles the voice response pipeline: bus, event store,
// synthesis backend, playback queue, moderation, reply generation, the
// chat connector service and the HTTP ingress.
type Runtime struct {
	cfg    config.Config
	logger *slog.Logger
	bus    *bus.Client
	chat   *chat.Service
	ready  atomic.Bool
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Start brings the runtime up and blocks until ctx is cancelled, then
// shuts the components down in reverse order.
func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded NATS server: %w", err)
	}
	defer embedded.Shutdown()

	busCfg := r.cfg.Bus
	if embedded != nil {
		busCfg.Servers = []string{embedded.ClientURL()}
	}
	busClient, err := bus.Connect(busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	r.bus = busClient
	defer busClient.Close()

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer store.Close()

	set, err := prompts.Load(r.cfg.PromptsPath)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	announcer, err := r.newSynthesizer(ctx)
	if err != nil {
		return err
	}

	player, err := audio.NewPlayer(r.cfg.Playback.Command, r.logger)
	if err != nil {
		return fmt.Errorf("failed to configure audio player: %w", err)
	}
	queue := audio.NewQueue(ctx, player, r.logger)
	queue.Start()
	defer queue.Close()

	var moderator moderation.Moderator = moderation.NewAllowAll()
	if r.cfg.Moderation.Enabled {
		moderator = moderation.NewOpenAI(r.cfg.OpenAI, r.logger)
	}

	replies := reply.NewOpenAI(r.cfg.OpenAI, set, r.cfg.Chat.Channel, r.logger)
	if err := replies.CheckModel(ctx); err != nil {
		r.logger.Warn("configured model unavailable, replies may fail",
			slog.String("model", r.cfg.OpenAI.Model),
			slog.String("error", err.Error()))
	}

	pl := pipeline.New(ctx, pipeline.Options{
		Chat:      r.cfg.Chat,
		Gap:       time.Duration(r.cfg.Playback.AnnounceGapMS) * time.Millisecond,
		FillerDir: r.cfg.Playback.FillerDir,
		Prompts:   set,
		Moderator: moderator,
		Announcer: announcer,
		Playback:  queue,
		Replies:   replies,
		Sender:    chat.NewBusSender(busClient),
		Store:     store,
		Logger:    r.logger,
	})

	chatSvc := chat.NewService(ctx, r.cfg.Chat, busClient, pl, r.logger)
	if err := chatSvc.Start(); err != nil {
		return fmt.Errorf("failed to start chat service: %w", err)
	}
	r.chat = chatSvc
	defer chatSvc.Close()

	httpSrv := ingress.NewServer(ctx, r.cfg.HTTP, pl, metricsHandler, r.Healthy, r.logger)
	if err := httpSrv.Start(); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("channel", r.cfg.Chat.Channel),
		slog.String("tts_mode", r.cfg.TTS.Mode))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Close(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
	}

	return nil
}

// Healthy reports whether the runtime can accept triggers.
func (r *Runtime) Healthy() bool {
	if !r.ready.Load() {
		return false
	}
	if r.bus != nil && !r.bus.Healthy() {
		return false
	}
	if r.chat != nil && !r.chat.Healthy() {
		return false
	}
	return true
}

func (r *Runtime) newSynthesizer(ctx context.Context) (tts.Synthesizer, error) {
	switch r.cfg.TTS.Mode {
	case "elevenlabs":
		if r.cfg.TTS.ElevenLabs.APIKey == "" {
			r.logger.Warn("no elevenlabs api key, falling back to translate backend")
			return tts.NewTranslate(r.cfg.TTS.Translate, r.cfg.TTS.Language, r.logger), nil
		}
		backend := tts.NewElevenLabs(r.cfg.TTS.ElevenLabs, r.cfg.TTS.Language, r.logger)
		r.checkVoice(ctx, backend)
		return backend, nil
	case "translate":
		return tts.NewTranslate(r.cfg.TTS.Translate, r.cfg.TTS.Language, r.logger), nil
	case "mock":
		return tts.NewMock(nil), nil
	default:
		return nil, fmt.Errorf("unknown tts mode %q", r.cfg.TTS.Mode)
	}
}

// checkVoice verifies the configured voice exists. The listing endpoint is
// flaky on cold keys, so it is retried; a failure only logs since synthesis
// may still work.
func (r *Runtime) checkVoice(ctx context.Context, backend *tts.ElevenLabs) {
	var (
		voices []tts.Voice
		err    error
	)
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
		voices, err = backend.Voices(ctx)
		if err == nil {
			break
		}
	}
	if err != nil {
		r.logger.Warn("could not list voices", slog.String("error", err.Error()))
		return
	}
	for _, v := range voices {
		if v.ID == r.cfg.TTS.ElevenLabs.VoiceID {
			r.logger.Info("voice verified", slog.String("voice", v.Name))
			return
		}
	}
	r.logger.Warn("configured voice not found in account",
		slog.String("voice_id", r.cfg.TTS.ElevenLabs.VoiceID))
}
