package main

import (
	"context"
	"log"

	"github.com/wisespend/authcore/internal/cli"
	"github.com/wisespend/authcore/internal/config"
)

func main() {

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}
