package main

import (
	"context"
	"log"

	"github.com/fincast/balance-forecast/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("forecast API failed: %v", err)
	}
}
