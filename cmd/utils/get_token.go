package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"itinerary-service/internal/infrastructure/oauth"
	"itinerary-service/pkg/logger"
	"itinerary-service/pkg/retry"
)

// Prints a bearer token for the configured service account, for calling the
// Firestore REST API by hand while debugging jobs.
func main() {
	keyFile := flag.String("key", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), "service account key file")
	scope := flag.String("scope", oauth.DatastoreScope, "OAuth scope to request")
	flag.Parse()

	if *keyFile == "" {
		log.Fatal("Missing service account key: pass -key or set GOOGLE_APPLICATION_CREDENTIALS")
	}

	credentials, err := os.ReadFile(*keyFile)
	if err != nil {
		log.Fatalf("Failed to read key file: %v", err)
	}

	provider, err := oauth.NewServiceAccountTokenProvider(credentials, []string{*scope}, retry.DefaultConfig(), logger.NewLoggerWithLevel("warn"))
	if err != nil {
		log.Fatalf("Failed to create token provider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	token, err := provider.Token(ctx)
	if err != nil {
		log.Fatalf("Failed to get token: %v", err)
	}

	fmt.Println(token)
}
