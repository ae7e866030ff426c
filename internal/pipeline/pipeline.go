package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxcastlabs/voxcast-core/internal/audio"
	"github.com/voxcastlabs/voxcast-core/internal/chat"
	"github.com/voxcastlabs/voxcast-core/internal/config"
	"github.com/voxcastlabs/voxcast-core/internal/moderation"
	"github.com/voxcastlabs/voxcast-core/internal/prompts"
	"github.com/voxcastlabs/voxcast-core/internal/protocol"
	"github.com/voxcastlabs/voxcast-core/internal/reply"
	"github.com/voxcastlabs/voxcast-core/internal/tts"
)

// Playback renders audio; in production this is the serialized queue.
type Playback interface {
	PlayStream(ctx context.Context, stream io.Reader) error
	PlayFile(ctx context.Context, path string) error
}

// Recorder persists trigger outcomes; satisfied by the event store.
type Recorder interface {
	BeginTrigger(ctx context.Context, triggerID, kind, user string) error
	AppendOutcome(ctx context.Context, triggerID, stage, detail string) error
}

// Options wires the pipeline's collaborators. Moderator and Ledger may be
// nil; they default to allow-all and a fresh ledger.
type Options struct {
	Chat      config.ChatConfig
	Gap       time.Duration
	FillerDir string
	Prompts   prompts.Set
	Moderator moderation.Moderator
	Announcer tts.Synthesizer
	Playback  Playback
	Replies   reply.Generator
	Sender    chat.Sender
	Ledger    *chat.GiftLedger
	Store     Recorder
	Logger    *slog.Logger
}

// Pipeline sequences one triggering event through moderation, synthesis,
// playback, filler audio and reply dispatch. Failures terminate only the
// current event's sequence; the next trigger starts fresh.
type Pipeline struct {
	cfg       config.ChatConfig
	gap       time.Duration
	fillerDir string
	set       prompts.Set
	moderator moderation.Moderator
	announcer tts.Synthesizer
	playback  Playback
	replies   reply.Generator
	sender    chat.Sender
	ledger    *chat.GiftLedger
	store     Recorder
	ctx       context.Context
	logger    *slog.Logger
	tracer    trace.Tracer
	outcomes  metric.Int64Counter

	mu     sync.Mutex
	stream protocol.StreamInfo
}

func New(ctx context.Context, opts Options) *Pipeline {
	if opts.Moderator == nil {
		opts.Moderator = moderation.NewAllowAll()
	}
	if opts.Ledger == nil {
		opts.Ledger = chat.NewGiftLedger()
	}
	meter := otel.Meter("github.com/voxcastlabs/voxcast-core/pipeline")
	outcomes, err := meter.Int64Counter("voxcast.pipeline.outcomes",
		metric.WithDescription("Pipeline stage outcomes per trigger"))
	if err != nil {
		opts.Logger.Warn("failed to create outcome counter", slog.String("error", err.Error()))
	}
	return &Pipeline{
		cfg:       opts.Chat,
		gap:       opts.Gap,
		fillerDir: opts.FillerDir,
		set:       opts.Prompts,
		moderator: opts.Moderator,
		announcer: opts.Announcer,
		playback:  opts.Playback,
		replies:   opts.Replies,
		sender:    opts.Sender,
		ledger:    opts.Ledger,
		store:     opts.Store,
		ctx:       ctx,
		logger:    opts.Logger.With(slog.String("component", "voice-pipeline")),
		tracer:    otel.Tracer("github.com/voxcastlabs/voxcast-core/pipeline"),
		outcomes:  outcomes,
	}
}

// HandleRedemption runs the full voice response sequence for a
// channel-point redemption.
func (p *Pipeline) HandleRedemption(ctx context.Context, ev protocol.Redemption) {
	if ev.RewardTitle != p.cfg.RedemptionTrigger {
		return
	}

	id := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "pipeline.redemption",
		trace.WithAttributes(attribute.String("trigger.id", id)))
	defer span.End()

	log := p.logger.With(slog.String("trigger", id), slog.String("user", ev.User))
	log.Info("redemption accepted", slog.String("reward", ev.RewardTitle))
	p.begin(ctx, id, "redemption", ev.User)

	allowed, err := p.moderator.Allow(ctx, ev.Message)
	if err != nil {
		log.Warn("moderation check failed", slog.String("error", err.Error()))
		p.record(ctx, id, "moderation", "error")
		return
	}
	if !allowed {
		p.say(p.set.WarningMessage)
		p.record(ctx, id, "moderation", "rejected")
		return
	}
	p.record(ctx, id, "moderation", "approved")

	announcement := prompts.Render(p.set.TTSMessage, map[string]string{
		"user":    ev.User,
		"message": ev.Message,
	})
	stream, err := p.announcer.Synthesize(ctx, announcement)
	if err != nil {
		log.Warn("announcement synthesis failed", slog.String("error", err.Error()))
		p.record(ctx, id, "synthesis", "error")
		return
	}
	err = p.playback.PlayStream(ctx, stream)
	stream.Close()
	if err != nil {
		log.Warn("announcement playback failed", slog.String("error", err.Error()))
		p.record(ctx, id, "playback", "error")
		return
	}
	p.record(ctx, id, "announcement", "played")

	if p.gap > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.gap):
		}
	}
	p.startFiller(log)

	answer, err := p.replies.Reply(ctx, reply.Request{
		User:    ev.User,
		Message: ev.Message,
		Kind:    "redemption",
		Stream:  p.streamInfo(),
	})
	if err != nil {
		log.Warn("reply generation failed", slog.String("error", err.Error()))
		p.record(ctx, id, "reply", "error")
		return
	}
	p.say(answer)
	p.record(ctx, id, "completed", "")
}

// HandleTranscription starts the sequence at reply generation: no
// validation, no moderation, no announcement.
func (p *Pipeline) HandleTranscription(ctx context.Context, text string) {
	id := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "pipeline.transcription",
		trace.WithAttributes(attribute.String("trigger.id", id)))
	defer span.End()

	log := p.logger.With(slog.String("trigger", id))
	p.begin(ctx, id, "transcription", p.cfg.Channel)

	p.startFiller(log)

	answer, err := p.replies.Reply(ctx, reply.Request{
		User:    p.cfg.Channel,
		Message: text,
		Kind:    "transcription",
		Stream:  p.streamInfo(),
	})
	if err != nil {
		log.Warn("reply generation failed", slog.String("error", err.Error()))
		p.record(ctx, id, "reply", "error")
		return
	}
	p.say(answer)
	p.record(ctx, id, "completed", "")
}

func (p *Pipeline) HandleBits(ctx context.Context, ev protocol.Bits) {
	if ev.Bits < p.cfg.MinBits {
		return
	}
	prompt := prompts.Render(p.set.OnBits, map[string]string{
		"user":       ev.User,
		"bits":       strconv.Itoa(ev.Bits),
		"total_bits": strconv.Itoa(ev.TotalBits),
		"message":    ev.Message,
	})
	p.respond(ctx, "bits", ev.User, prompt)
}

func (p *Pipeline) HandleSub(ctx context.Context, ev protocol.Sub) {
	prompt := prompts.Render(p.set.OnSub, map[string]string{"user": ev.User})
	p.respond(ctx, "sub", ev.User, prompt)
}

func (p *Pipeline) HandleResub(ctx context.Context, ev protocol.Sub) {
	prompt := prompts.Render(p.set.OnResub, map[string]string{
		"user":   ev.User,
		"months": strconv.Itoa(ev.Months),
	})
	p.respond(ctx, "resub", ev.User, prompt)
}

func (p *Pipeline) HandleSubGift(ctx context.Context, ev protocol.SubGift) {
	if p.ledger.SuppressIndividual(ev.Gifter) {
		// Already covered by the community gift announcement.
		return
	}
	prompt := prompts.Render(p.set.OnSubGift, map[string]string{
		"gifter": ev.Gifter,
		"user":   ev.Recipient,
	})
	p.respond(ctx, "subgift", ev.Recipient, prompt)
}

func (p *Pipeline) HandleCommunityGift(ctx context.Context, ev protocol.CommunityGift) {
	p.ledger.RecordCommunityGift(ev.Gifter, ev.Count)
	prompt := prompts.Render(p.set.OnCommunityGift, map[string]string{
		"gifter": ev.Gifter,
		"count":  strconv.Itoa(ev.Count),
	})
	p.respond(ctx, "communitygift", ev.Gifter, prompt)
}

func (p *Pipeline) HandlePrimeUpgrade(ctx context.Context, ev protocol.PrimeUpgrade) {
	prompt := prompts.Render(p.set.OnPrimeUpgrade, map[string]string{"user": ev.User})
	p.respond(ctx, "primeupgrade", ev.User, prompt)
}

func (p *Pipeline) HandleGiftUpgrade(ctx context.Context, ev protocol.GiftUpgrade) {
	prompt := prompts.Render(p.set.OnGiftUpgrade, map[string]string{
		"user":   ev.User,
		"gifter": ev.Gifter,
	})
	p.respond(ctx, "giftupgrade", ev.User, prompt)
}

func (p *Pipeline) HandleStreamInfo(info protocol.StreamInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = info
}

func (p *Pipeline) streamInfo() protocol.StreamInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream
}

// respond generates and dispatches a reply without any audio stages.
func (p *Pipeline) respond(ctx context.Context, kind, user, prompt string) {
	answer, err := p.replies.Reply(ctx, reply.Request{
		User:    user,
		Message: prompt,
		Kind:    kind,
		Stream:  p.streamInfo(),
	})
	if err != nil {
		p.logger.Warn("reply generation failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return
	}
	p.say(answer)
}

// startFiller begins filler playback in the background to mask reply
// latency; the queue still keeps it from overlapping the announcement.
func (p *Pipeline) startFiller(log *slog.Logger) {
	if p.fillerDir == "" {
		return
	}
	path, err := audio.RandomFiller(p.fillerDir)
	if err != nil {
		log.Warn("no filler audio available", slog.String("error", err.Error()))
		return
	}
	log.Info("playing filler audio", slog.String("file", path))
	go func() {
		if err := p.playback.PlayFile(p.ctx, path); err != nil {
			log.Warn("filler playback failed", slog.String("error", err.Error()))
		}
	}()
}

func (p *Pipeline) say(text string) {
	if err := p.sender.Say(p.cfg.Channel, text); err != nil {
		p.logger.Warn("failed to send chat message", slog.String("error", err.Error()))
	}
}

func (p *Pipeline) begin(ctx context.Context, id, kind, user string) {
	if p.store == nil {
		return
	}
	if err := p.store.BeginTrigger(ctx, id, kind, user); err != nil {
		p.logger.Warn("failed to record trigger", slog.String("error", err.Error()))
	}
}

func (p *Pipeline) record(ctx context.Context, id, stage, detail string) {
	if p.outcomes != nil {
		p.outcomes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("detail", detail),
		))
	}
	if p.store == nil {
		return
	}
	if err := p.store.AppendOutcome(ctx, id, stage, detail); err != nil {
		p.logger.Warn("failed to record outcome", slog.String("error", err.Error()))
	}
}
