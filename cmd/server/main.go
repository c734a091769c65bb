package main

import (
	"github.com/arkiv-labs/dossier/backend/internal/server"
	"github.com/arkiv-labs/dossier/backend/internal/util"
	"github.com/arkiv-labs/dossier/backend/pkg/logger"
	"github.com/arkiv-labs/dossier/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
