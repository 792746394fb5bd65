package main

import (
	"github.com/houmingya/LLM-MCP-TOOLS/internal/server"
	"github.com/houmingya/LLM-MCP-TOOLS/internal/util"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/logger/console"

	_ "github.com/lib/pq"
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
