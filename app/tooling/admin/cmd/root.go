// Package cmd contains the admin app commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/codec"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/disk"
	"github.com/spf13/cobra"
)

var (
	dbPath       string
	genesisPath  string
	hashStrategy string
	targetRate   time.Duration
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Inspect and verify a node's block storage",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "zblock/", "Path to the node's block storage.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", genesis.DefaultPath, "Path to the genesis file.")
	rootCmd.PersistentFlags().StringVar(&hashStrategy, "hash", hashing.StrategySHA256, "Hash strategy the chain was built with.")
	rootCmd.PersistentFlags().DurationVar(&targetRate, "target-rate", 30*time.Second, "Target mining rate the chain was built with.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print validation events.")
}

// openDatabase loads the chain from disk. Every stored block is validated
// against its parent while loading.
func openDatabase() (*database.Database, error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return nil, fmt.Errorf("loading genesis: %w", err)
	}

	strategy, err := hashing.RetrieveStrategy(hashStrategy)
	if err != nil {
		return nil, err
	}

	cdc := codec.New()

	strg, err := disk.New(dbPath, cdc)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	ev := func(v string, args ...any) {}
	if verbose {
		ev = func(v string, args ...any) {
			fmt.Printf(v+"\n", args...)
		}
	}

	db, err := database.New(database.Config{
		Storage:          strg,
		Hasher:           hashing.New(hashing.Config{Codec: cdc, Strategy: strategy}),
		Genesis:          gen,
		TargetMiningRate: targetRate,
		EvHandler:        ev,
	})
	if err != nil {
		strg.Close()
		return nil, err
	}

	return db, nil
}
