package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"PingUp/data/database/mgo/mongoutil"
	"PingUp/global/config"
	"PingUp/logger"
	"PingUp/middleware"
	"PingUp/module/message/handler"
	"PingUp/module/message/service"
	"PingUp/module/message/store"
	userstore "PingUp/module/user/store"
	"PingUp/service/chat"
	"PingUp/service/kafka"
	"PingUp/service/media"
	"PingUp/service/mgo"
	"PingUp/service/natsx"
	"PingUp/service/storage/redis"
	"PingUp/service/workflow"
	"PingUp/tools/ids"
	"PingUp/tools/safe"
	"PingUp/tools/security"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

// closers run in reverse order on shutdown.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run() int {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	ids.SetNodeID(cfg.NodeID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cleanup closers
	defer cleanup.run()

	st, dir, health, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", zap.Error(err))
		return 1
	}

	reg := chat.NewRegistry()
	pub, busCheck, err := openPublisher(ctx, cfg, chat.NewDispatcher(reg), &cleanup)
	if err != nil {
		logger.Error("open bus", zap.Error(err))
		return 1
	}
	health = append(health, busCheck...)

	sub, err := openSubmitter(cfg, &cleanup)
	if err != nil {
		logger.Error("open workflow", zap.Error(err))
		return 1
	}
	if cfg.DigestEnabled {
		digest := workflow.NewDigest(st, sub, cfg.DigestHour, cfg.Location())
		safe.SafeGo("digest", func() { digest.Run(ctx) })
	}

	ctrl := service.NewController(service.Options{
		Store:     st,
		Directory: dir,
		Uploader: media.NewImageKit(media.ImageKitConfig{
			PrivateKey: cfg.ImageKitPrivateKey,
			UploadURL:  cfg.ImageKitUploadURL,
			Folder:     cfg.ImageKitFolder,
			Transform:  cfg.MediaTransform,
		}),
		Publisher:    pub,
		HistoryLimit: cfg.HistoryLimit,
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	mids := middleware.NewManager(middleware.RequestLog())
	mids.Add(middleware.Origin(cfg.FrontendURL))
	r.Use(gin.Recovery(), mids.Use())

	verifier := security.NewVerifier(security.Options{Secret: []byte(cfg.JWTSecret), Alg: cfg.JWTAlg})
	handler.Register(r,
		middleware.NewRouter(verifier),
		handler.NewMessageHandler(ctrl, cfg.MaxUploadBytes),
		handler.NewStreamHandler(reg, chat.StreamOptions{Heartbeat: cfg.HeartbeatInterval, Buffer: cfg.ChannelBuffer}, cfg.FrontendURL),
		handler.Health(reg, health...),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// streams end with the request context; cancel them before Shutdown waits
	srv.BaseContext = func(_ net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreDriver), zap.String("bus", cfg.BusDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return 0
}

func openStore(ctx context.Context, cfg *config.AppConfig) (store.Store, userstore.Directory, []handler.Check, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store, messages are lost on restart")
		return store.NewMemory(), nil, nil, nil
	}

	mgr := mgo.NewManager(&mongoutil.Config{
		Uri:         cfg.MongoURL,
		Database:    cfg.MongoDB,
		MaxPoolSize: int(cfg.MongoPool),
		MaxRetry:    cfg.MongoRetries,
	})
	mgr.StartAsync(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := mgr.WaitReady(waitCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	st := store.NewMongo(db)
	if err := st.EnsureIndexes(ctx); err != nil {
		return nil, nil, nil, err
	}
	check := func() (string, bool) { return "mongo", mgr.Healthy() }
	return st, userstore.NewMongo(db), []handler.Check{check}, nil
}

// openPublisher starts the bus relay when configured. Relay.Run resubscribes
// until ctx ends; /healthz reports the subscription.
func openPublisher(ctx context.Context, cfg *config.AppConfig, local *chat.Dispatcher, cleanup *closers) (chat.Publisher, []handler.Check, error) {
	var bus chat.Bus
	switch cfg.BusDriver {
	case config.BusNats:
		cli, err := natsx.NewNatsxClient(natsx.NatsxConfig{Servers: cfg.NatsServers, Name: "pingup"})
		if err != nil {
			return nil, nil, err
		}
		bus = natsx.NewUserBus(cli, cfg.NatsSubject)
	case config.BusRedis:
		rdb, err := redis.NewClient(ctx, redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		bus = redis.NewPubSubBus(rdb, cfg.RedisChannel)
	default:
		return local, nil, nil
	}

	relay := chat.NewRelay(bus, local)
	cleanup.add(func() { _ = relay.Close() })
	safe.SafeGo("relay", func() {
		if err := relay.Run(ctx); err != nil {
			logger.Error("bus relay stopped", zap.Error(err))
		}
	})
	check := func() (string, bool) { return "bus", relay.Subscribed() }
	return relay, []handler.Check{check}, nil
}

func openSubmitter(cfg *config.AppConfig, cleanup *closers) (workflow.Submitter, error) {
	if cfg.WorkflowDriver != config.WorkflowKafka {
		return workflow.NewLogSubmitter(), nil
	}
	p, err := kafka.NewSyncProducer(kafka.DefaultConfig(cfg.KafkaBrokers))
	if err != nil {
		return nil, err
	}
	cleanup.add(func() { _ = p.Close() })
	return workflow.NewKafkaSubmitter(p, cfg.KafkaTopic), nil
}
