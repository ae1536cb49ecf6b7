package main

import (
	"pgstay/startup"
	"pgstay/startup/config"
)

func main() {
	cfg := config.NewConfig()
	server := startup.NewServer(cfg)
	server.Start()
}
