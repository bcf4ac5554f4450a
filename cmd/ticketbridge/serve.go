package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/ticket-bridge/internal/api/http"
	"github.com/spec-kit/ticket-bridge/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bridge/internal/auth"
	"github.com/spec-kit/ticket-bridge/internal/chatevents"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/gateway/discord"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/persistence"
	"github.com/spec-kit/ticket-bridge/internal/service"
	"github.com/spec-kit/ticket-bridge/internal/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the panel API and the Discord gateway listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect postgres", zap.Error(err))
			return err
		}
		defer pg.Close()

		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()

		client, err := discord.NewClient(discord.ClientConfig{
			Token:          cfg.Discord.BotToken,
			MaxRestRetries: cfg.Discord.MaxRestRetries,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		threads := discord.NewAdapter(client, discord.AdapterConfig{
			GuildID:     cfg.Discord.GuildID,
			StaffRoleID: cfg.Discord.StaffRoleID,
		}, logger)

		metrics := observability.NewMetrics()
		dispatcher := events.NewInMemoryDispatcher()
		var sink service.EventSink
		if publisher := redis.EventPublisher(); publisher != nil {
			sink = publisher
		}
		worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, metrics, sink))

		store := pg.TicketStore()
		tags := service.NewTagRegistry(cfg.Catalog.Tags, store.Tags)
		tickets := service.NewTicketService(service.TicketDependencies{
			TicketRepo:     store.Tickets,
			MessageRepo:    store.Messages,
			Tags:           tags,
			Gateway:        threads,
			GatewayTimeout: cfg.Gateway.Timeout(),
			Dispatcher:     dispatcher,
			Logger:         logger,
			Categories:     cfg.Catalog.Categories,
			ParentChannel:  cfg.Discord.TicketChannelID,
		})
		projection := service.NewProjectionService(service.ProjectionDependencies{
			TicketRepo:  store.Tickets,
			MessageRepo: store.Messages,
			Tags:        tags,
			Categories:  cfg.Catalog.Categories,
		})

		var roleCache auth.RoleCache
		if cache := redis.RoleCache(cfg.Auth.StaffRoleCacheTTL()); cache != nil {
			roleCache = cache
		}
		staffResolver := auth.NewStaffResolver(threads, cfg.Gateway.Timeout(), roleCache, logger)
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

		app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
		httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
				handlers.NamedDependency{Name: "postgres", Dependency: pg, Fallback: "memory"},
				handlers.NamedDependency{Name: "redis", Dependency: redis, Fallback: "disabled"},
			),
			Tickets:        handlers.NewTicketsHandler(tickets, projection),
			Staff:          handlers.NewStaffHandler(tickets, tags, cfg.Catalog.Categories, metrics),
			AuthMiddleware: auth.NewAuthMiddleware(tokens, staffResolver),
		})

		var listener worker.Runner
		if cfg.Gateway.ListenerEnable {
			listener = discord.NewListener(client, chatevents.NewHandler(chatevents.Config{
				Tickets:     tickets,
				Staff:       staffResolver,
				Responder:   client,
				StaffRoleID: cfg.Discord.StaffRoleID,
				Logger:      logger,
			}), discord.ListenerConfig{Logger: logger})
		}

		g, gctx := errgroup.WithContext(ctx)
		worker.StartChatListener(gctx, g, listener, logger)
		g.Go(func() error {
			logger.Info("panel api listening", zap.String("addr", cfg.App.Addr()))
			return app.Listen(cfg.App.Addr())
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			return app.ShutdownWithTimeout(shutdownTimeout)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
