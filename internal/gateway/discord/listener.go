package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// EventHandler receives the dispatches the bridge consumes. Each call runs on
// its own goroutine so a slow handler never delays heartbeats.
type EventHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandleInteraction(ctx context.Context, interaction Interaction)
}

// gatewaySession is the part of *discordgo.Session the listener drives.
type gatewaySession interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
}

// ListenerConfig bounds retries of the first connect. Later drops are
// resumed by the session itself.
type ListenerConfig struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *zap.Logger
}

// Listener keeps the gateway session open and feeds events to a handler.
type Listener struct {
	session gatewaySession
	handler EventHandler
	cfg     ListenerConfig
	logger  *zap.Logger

	ctx     context.Context
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewListener listens on the client's session.
func NewListener(client *Client, handler EventHandler, cfg ListenerConfig) *Listener {
	return newListener(client.session, handler, cfg)
}

func newListener(session gatewaySession, handler EventHandler, cfg ListenerConfig) *Listener {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = 2 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{session: session, handler: handler, cfg: cfg, logger: logger}
}

// Run opens the session and blocks until ctx is done, then closes it and
// waits for in-flight handlers.
func (l *Listener) Run(ctx context.Context) error {
	l.mu.Lock()
	l.ctx = ctx
	l.mu.Unlock()
	removers := []func(){
		l.session.AddHandler(l.onReady),
		l.session.AddHandler(l.onResumed),
		l.session.AddHandler(l.onMessageCreate),
		l.session.AddHandler(l.onInteractionCreate),
	}
	defer func() {
		for _, remove := range removers {
			remove()
		}
	}()

	if err := l.open(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	if err := l.session.Close(); err != nil {
		l.logger.Warn("discord gateway close failed", zap.Error(err))
	}
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.wg.Wait()
	return ctx.Err()
}

func (l *Listener) open(ctx context.Context) error {
	backoff := l.cfg.MinBackoff
	for {
		err := l.session.Open()
		if err == nil {
			return nil
		}
		l.logger.Warn("discord gateway connect failed", zap.Error(err), zap.Duration("retry_in", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, l.cfg.MaxBackoff)
	}
}

// track registers an in-flight handler unless Run is not running.
func (l *Listener) track() (context.Context, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || l.ctx == nil {
		return nil, false
	}
	l.wg.Add(1)
	return l.ctx, true
}

func (l *Listener) onReady(_ *discordgo.Session, event *discordgo.Ready) {
	l.logger.Info("discord gateway ready", zap.String("session_id", event.SessionID))
}

func (l *Listener) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	l.logger.Info("discord gateway session resumed")
}

func (l *Listener) onMessageCreate(_ *discordgo.Session, event *discordgo.MessageCreate) {
	if event == nil || event.Message == nil {
		return
	}
	ctx, ok := l.track()
	if !ok {
		return
	}
	defer l.wg.Done()
	l.handler.HandleMessage(ctx, messageFrom(event.Message))
}

func (l *Listener) onInteractionCreate(_ *discordgo.Session, event *discordgo.InteractionCreate) {
	if event == nil {
		return
	}
	interaction, ok := interactionFrom(event.Interaction)
	if !ok {
		return
	}
	ctx, ok := l.track()
	if !ok {
		return
	}
	defer l.wg.Done()
	l.handler.HandleInteraction(ctx, interaction)
}
