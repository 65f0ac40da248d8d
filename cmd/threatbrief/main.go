package main

import (
	"threatbrief/cmd/handlers"
	"threatbrief/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
