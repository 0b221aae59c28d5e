package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trivedii/library-management-api/pkg/kafka"

	"github.com/trivedii/library-management-api/library/migrations"

	"github.com/trivedii/library-management-api/library/config"
	"github.com/trivedii/library-management-api/library/internal/handler"
	"github.com/trivedii/library-management-api/library/internal/notifier"
	"github.com/trivedii/library-management-api/library/internal/publisher"
	"github.com/trivedii/library-management-api/library/internal/repository"
	"github.com/trivedii/library-management-api/library/internal/server"
	"github.com/trivedii/library-management-api/library/internal/service"
	"github.com/trivedii/library-management-api/library/internal/wishlist"
	"github.com/trivedii/library-management-api/pkg/logger"
	"github.com/trivedii/library-management-api/pkg/postgres"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("kafka.NewProducer", zap.Error(err))
	}
	pub := publisher.New(producer, log)
	svc := service.NewService(repo, pub, log)

	group, err := kafka.NewConsumer(cfg.Kafka, kafka.WishlistConsumerGroup)
	if err != nil {
		log.Fatal("kafka.NewConsumer", zap.Error(err))
	}
	consumer := notifier.NewConsumer(
		wishlist.NewSQLResolver(db, log),
		notifier.NewLogNotifier(log),
		log,
	)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// stops claiming on ctx cancel, finishes in-flight entries first
		kafka.Consume(ctx, group, consumer, log, kafka.BookStatusTopic)
		return nil
	})
	eg.Go(func() error {
		return srv.Run()
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Debug("Graceful shutdown")

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := eg.Wait(); err != nil {
		log.Error("run", zap.Error(err))
	}

	if err := group.Close(); err != nil {
		log.Error("consumer group close", zap.Error(err))
	}
	if err := producer.Close(); err != nil {
		log.Error("producer close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
