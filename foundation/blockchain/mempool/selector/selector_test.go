package selector_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool/selector"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var t0 = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func tran(t *testing.T, from string, tip uint64, sec int) database.Transaction {
	t.Helper()

	tx, err := database.NewTransaction(from, "ceasar", 1, tip, nil, t0.Add(time.Duration(sec)*time.Second))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a transaction: %s", failed, err)
	}

	return tx
}

func group(txs ...database.Transaction) map[string][]database.Transaction {
	m := make(map[string][]database.Transaction)
	for _, tx := range txs {
		m[tx.From] = append(m[tx.From], tx)
	}
	return m
}

func TestTipSelect(t *testing.T) {
	type test struct {
		name    string
		txs     []database.Transaction
		howMany int
		best    []int
	}

	// Bill's second transaction has the best tip but it has to wait for his
	// first one.
	bill1 := tran(t, "bill", 150, 1)
	bill2 := tran(t, "bill", 250, 2)
	pavel1 := tran(t, "pavel", 75, 1)
	pavel2 := tran(t, "pavel", 200, 2)
	ed1 := tran(t, "ed", 100, 1)
	ed2 := tran(t, "ed", 75, 2)

	all := []database.Transaction{bill2, bill1, pavel2, pavel1, ed2, ed1}

	tt := []test{
		{name: "all", txs: all, howMany: -1, best: []int{150, 100, 75, 250, 200, 75}},
		{name: "first row", txs: all, howMany: 2, best: []int{150, 100}},
		{name: "into second row", txs: all, howMany: 4, best: []int{150, 100, 75, 250}},
		{name: "more than exists", txs: all[:2], howMany: 5, best: []int{150, 250}},
	}

	fn, err := selector.Retrieve(selector.StrategyTip)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to retrieve the strategy: %s", failed, err)
	}

	t.Log("Given the need to select transactions by tip.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				got := fn(group(tst.txs...), tst.howMany)
				if len(got) != len(tst.best) {
					t.Fatalf("\t%s\tTest %d:\tShould get %d transactions, got %d.", failed, testID, len(tst.best), len(got))
				}

				for i, tip := range tst.best {
					if got[i].Tip != uint64(tip) {
						t.Fatalf("\t%s\tTest %d:\tShould get tip %d at %d, got %d.", failed, testID, tip, i, got[i].Tip)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould get the transactions in tip order.", success, testID)
			}
		}
	}
}

func TestOldestSelect(t *testing.T) {
	fn, err := selector.Retrieve(selector.StrategyOldest)
	if err != nil {
		t.Fatalf("Should be able to retrieve the strategy: %s", err)
	}

	a := tran(t, "bill", 500, 3)
	b := tran(t, "pavel", 1, 1)
	c := tran(t, "ed", 50, 2)

	got := fn(group(a, b, c), 2)
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != c.ID {
		t.Fatalf("Should pick the oldest transactions, got %v.", got)
	}

	if _, err := selector.Retrieve("random"); err == nil {
		t.Fatalf("Should not find an unknown strategy.")
	}
}
