package main

import (
	"os"

	"schedulesync/core/logger"
	"schedulesync/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		os.Exit(1)
	}
}
