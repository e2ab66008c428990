package main

import (
	"log"

	"github.com/austindbirch/hec_forward/cmd/hecforward/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
