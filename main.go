package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pnodedash/cmd/fetch"
	"pnodedash/cmd/serve"
)

func main() {
	root := &cobra.Command{
		Use:   "pnodedash",
		Short: "pNode network dashboard backend",
	}
	root.AddCommand(serve.New(), fetch.New())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
