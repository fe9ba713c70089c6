// Command mailer runs the password-reset mail consumer on its own,
// for deployments that keep queue workers out of the API process.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log.Printf("mail consumer starting (env=%s)", cfg.Env)
	if err := queue.StartMailConsumer(cfg.AMQPURL); err != nil {
		log.Fatalf("mail consumer: %v", err)
	}
}
