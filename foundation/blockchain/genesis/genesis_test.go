package genesis_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestLoad(t *testing.T) {
	tt := []struct {
		name       string
		difficulty uint
		ok         bool
	}{
		{name: "zero", difficulty: 0, ok: true},
		{name: "max", difficulty: genesis.MaxDifficulty, ok: true},
		{name: "above max", difficulty: genesis.MaxDifficulty + 1, ok: false},
	}

	t.Log("Given the need to load a genesis file.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen the difficulty is %d.", testID, tst.difficulty)
				{
					path := filepath.Join(t.TempDir(), "genesis.json")
					doc := fmt.Sprintf(`{"date":"2025-01-06T00:00:00Z","chain_id":1,"difficulty":%d}`, tst.difficulty)
					if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %s", failed, testID, err)
					}

					gen, err := genesis.Load(path)
					switch {
					case tst.ok && err != nil:
						t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %s", failed, testID, err)
					case !tst.ok && err == nil:
						t.Fatalf("\t%s\tTest %d:\tShould reject a difficulty above %d.", failed, testID, genesis.MaxDifficulty)
					}

					if tst.ok && (gen.Difficulty != tst.difficulty || gen.ChainID != 1) {
						t.Fatalf("\t%s\tTest %d:\tShould read the values back, got %+v.", failed, testID, gen)
					}
					t.Logf("\t%s\tTest %d:\tShould apply the difficulty range.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
