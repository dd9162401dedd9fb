package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/powchain/foundation/blockchain/merkle"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate every stored block against its parent.",
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("chain is invalid: %s", err)
	}
	defer db.Close()

	latest := db.LatestBlock()
	fmt.Printf("Chain is valid\n")
	fmt.Printf("Latest Block: %d\n", latest.Header.Number)
	fmt.Printf("Latest Hash : %s\n", latest.Hash)

	if len(latest.Transactions) == 0 {
		return
	}

	tree, err := merkle.NewTree(db.Hasher(), latest.Transactions)
	if err != nil {
		log.Fatalf("building merkle tree: %s", err)
	}
	fmt.Printf("Latest Root : %s\n", tree.RootHex())
	fmt.Printf("Trans       : %d\n", len(tree.Values()))
}
