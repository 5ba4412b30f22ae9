package main

import (
	"log"

	"github.com/Bitlatte/postbook/cmd"
	"github.com/Bitlatte/postbook/internal/config"
	"github.com/Bitlatte/postbook/internal/model"
)

var site model.SiteData

func main() {
	params, err := config.LoadParams("config.yaml")
	if err != nil {
		log.Fatalf("Error loading site params: %v", err)
	}
	site.Params = params
	cmd.Execute(&site)
}
