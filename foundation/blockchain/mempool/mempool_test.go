package mempool_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/codec"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool/selector"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var t0 = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func newTx(t *testing.T, from string, tip uint64, sec int, data []byte) database.Transaction {
	t.Helper()

	tx, err := database.NewTransaction(from, "ceasar", 10, tip, data, t0.Add(time.Duration(sec)*time.Second))
	if err != nil {
		t.Fatalf("Should be able to construct a transaction: %s", err)
	}

	return tx
}

func TestCRUD(t *testing.T) {
	t.Log("Given the need to validate mempool api.")
	{
		t.Logf("\tTest 0:\tWhen handling a set of transactions.")
		{
			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the mempool: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the mempool.", success)

			txs := []database.Transaction{
				newTx(t, "bill", 10, 2, nil),
				newTx(t, "pavel", 50, 3, nil),
				newTx(t, "ed", 100, 4, nil),
				newTx(t, "jack", 10, 1, nil),
			}

			for _, tx := range txs {
				if _, err := mp.Upsert(tx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add the transaction: %s", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add the transactions.", success)

			if mp.Count() != len(txs) {
				t.Fatalf("\t%s\tTest 0:\tShould have %d transactions, got %d.", failed, len(txs), mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have the right number of transactions.", success)

			best := mp.PickBest(2)
			if len(best) != 2 || best[0].Tip != 100 || best[1].Tip != 50 {
				t.Fatalf("\t%s\tTest 0:\tShould pick the best tips first, got %v.", failed, best)
			}
			t.Logf("\t%s\tTest 0:\tShould pick the best tips first.", success)

			all := mp.Copy()
			if len(all) != 4 || all[0].From != "jack" || all[3].From != "ed" {
				t.Fatalf("\t%s\tTest 0:\tShould copy the pool in natural order, got %v.", failed, all)
			}
			t.Logf("\t%s\tTest 0:\tShould copy the pool in natural order.", success)

			mp.Delete(txs[2])
			if mp.Exists(txs[2].ID) || mp.Count() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delete a transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to delete a transaction.", success)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould be able to truncate the pool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to truncate the pool.", success)
		}
	}
}

func TestUpsertInvalid(t *testing.T) {
	mp, err := mempool.New()
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	tx := newTx(t, "bill", 0, 1, nil)
	tx.To = tx.From

	if _, err := mp.Upsert(tx); err == nil {
		t.Fatalf("Should reject a transaction to the sender.")
	}

	if _, err := mempool.NewWithStrategy("random"); err == nil {
		t.Fatalf("Should reject an unknown strategy.")
	}
}

func TestFetchPending(t *testing.T) {
	mp, err := mempool.NewWithStrategy(selector.StrategyOldest)
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %s", err)
	}

	small1 := newTx(t, "bill", 0, 1, nil)
	big := newTx(t, "pavel", 0, 2, make([]byte, 512))
	small2 := newTx(t, "ed", 0, 3, nil)

	for _, tx := range []database.Transaction{small1, big, small2} {
		if _, err := mp.Upsert(tx); err != nil {
			t.Fatalf("Should be able to add the transaction: %s", err)
		}
	}

	c := codec.New()
	size1, _ := c.Size(small1)
	size2, _ := c.Size(small2)

	got, err := mp.FetchPending(size1 + size2)
	if err != nil {
		t.Fatalf("Should be able to fetch pending transactions: %s", err)
	}

	if len(got) != 2 || got[0].ID != small1.ID || got[1].ID != small2.ID {
		t.Fatalf("Should skip the transaction that doesn't fit, got %v.", got)
	}

	got, err = mp.FetchPending(0)
	if err != nil || len(got) != 3 {
		t.Fatalf("Should fetch everything without a budget: len[%d] err[%v]", len(got), err)
	}

	got, err = mp.FetchPending(1)
	if err != nil || len(got) != 0 {
		t.Fatalf("Should fetch nothing with a tiny budget: len[%d] err[%v]", len(got), err)
	}
}

func TestFetchPendingSenderOrder(t *testing.T) {
	t.Log("Given the need to keep the order of one sender's transactions under a byte budget.")
	{
		mp, err := mempool.NewWithStrategy(selector.StrategyOldest)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the mempool: %s", failed, err)
		}

		bigBill := newTx(t, "bill", 0, 1, make([]byte, 512))
		smallBill := newTx(t, "bill", 0, 2, nil)
		smallEd := newTx(t, "ed", 0, 3, nil)

		for _, tx := range []database.Transaction{bigBill, smallBill, smallEd} {
			if _, err := mp.Upsert(tx); err != nil {
				t.Fatalf("\t%s\tShould be able to add the transaction: %s", failed, err)
			}
		}

		c := codec.New()
		sizeBill, _ := c.Size(smallBill)
		sizeEd, _ := c.Size(smallEd)

		t.Logf("\tWhen the first transaction of a sender doesn't fit.")
		{
			got, err := mp.FetchPending(sizeBill + sizeEd)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to fetch pending transactions: %s", failed, err)
			}

			if len(got) != 1 || got[0].ID != smallEd.ID {
				t.Fatalf("\t%s\tShould only take the other sender's transaction, got %v.", failed, got)
			}
			t.Logf("\t%s\tShould skip the later transactions of the same sender.", success)
		}
	}
}
