package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	from     uint64
	quantity uint64
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print a range of blocks as JSON.",
	Run:   blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().Uint64VarP(&from, "from", "f", 0, "Number of the first block.")
	blocksCmd.Flags().Uint64VarP(&quantity, "quantity", "q", 10, "Number of blocks to print.")
}

func blocksRun(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	blocks, err := db.FindRange(from, quantity)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(data))
}
