package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/watermelon-studio/studio-booking/config"
	"github.com/watermelon-studio/studio-booking/internal/mailer"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"github.com/watermelon-studio/studio-booking/pkg/database"
	"github.com/watermelon-studio/studio-booking/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}
	activityRepo := repository.NewActivityRepository(db)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	m := mailer.NewMailer(mailer.NewSMTPSender(cfg), cfg, activityRepo)
	m.Start(msgs)

	log.Println("Mailer worker running")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Mailer worker shutting down")
}
