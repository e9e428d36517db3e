package main

import (
	"flag"

	"github.com/joshuarp/liveconfig/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "fallback config file path, used when "+app.ConfigPathEnvVar+" is unset")
	flag.Parse()

	app.New(*configPath, app.AdminModule()).Run()
}
