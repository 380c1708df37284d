package main

import (
	"context"
	"log"
	"os"

	"github.com/vibelab/backend/internal/app"
)

func main() {
	ctx := context.Background()
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
