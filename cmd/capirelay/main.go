package main

import (
	"github.com/leshachaplin/capirelay/app"
	"github.com/leshachaplin/capirelay/internal/config"
)

func main() {
	app.New(config.FromEnv).Start()
}
