package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AdonayRH/wahisper-sub000/config"
	"github.com/AdonayRH/wahisper-sub000/ingest"
	"github.com/AdonayRH/wahisper-sub000/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.csv>",
	Short: "Load a catalog CSV into the product store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			exitErr("configuration", err)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			exitErr("read catalog", err)
		}
		products, err := ingest.NewCSVParser().Parse(data)
		if err != nil {
			exitErr("parse catalog", err)
		}

		db, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			exitErr("open store", err)
		}
		defer db.Close()
		if err := db.Upsert(cmd.Context(), products); err != nil {
			exitErr("upsert catalog", err)
		}

		fmt.Printf("seeded %d products into %s\n", len(products), cfg.DBPath)
	},
}
