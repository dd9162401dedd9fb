package hashing_test

import (
	"cmp"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type entry struct {
	Name  string            `msgpack:"name"`
	Value uint64            `msgpack:"value"`
	Tags  []string          `msgpack:"tags"`
	Attrs map[string]uint64 `msgpack:"attrs"`
}

func (e entry) Compare(other entry) int {
	return cmp.Compare(e.Name, other.Name)
}

func newEntry(name string) entry {
	attrs := make(map[string]uint64)
	for i, k := range []string{"zeta", "alpha", "mu", "beta"} {
		attrs[k] = uint64(i)
	}

	return entry{
		Name:  name,
		Value: 42,
		Tags:  []string{"a", "b", name},
		Attrs: attrs,
	}
}

func TestGenerateDeterminism(t *testing.T) {
	t.Log("Given the need to hash logically equal values to the same hash.")
	{
		t.Logf("\tTest 0:\tWhen handling two separately built equal values.")
		{
			g := hashing.New(hashing.Config{})

			h1, err := g.Generate(newEntry("bill"))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to hash the first value: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to hash the first value.", success)

			h2, err := g.Generate(newEntry("bill"))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to hash the second value: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to hash the second value.", success)

			if h1 != h2 {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, h2)
				t.Logf("\t%s\tTest 0:\texp: %s", failed, h1)
				t.Fatalf("\t%s\tTest 0:\tShould get the same hash for equal values.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same hash for equal values.", success)

			if len(h1) != 64 {
				t.Fatalf("\t%s\tTest 0:\tShould get a 64 character hex hash, got %d.", failed, len(h1))
			}
			t.Logf("\t%s\tTest 0:\tShould get a 64 character hex hash.", success)

			h3, err := g.Generate(newEntry("ceasar"))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to hash a different value: %s", failed, err)
			}
			if h3 == h1 {
				t.Fatalf("\t%s\tTest 0:\tShould get a different hash for a different value.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get a different hash for a different value.", success)
		}
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g := hashing.New(hashing.Config{})

	exp, err := g.Generate(newEntry("bill"))
	if err != nil {
		t.Fatalf("Should be able to hash the value: %s", err)
	}

	const goroutines = 16

	var wg sync.WaitGroup
	wg.Add(goroutines)

	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				h, err := g.Generate(newEntry("bill"))
				if err != nil {
					errs <- err
					return
				}
				if h != exp {
					errs <- errors.New("hash mismatch under concurrent use")
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("Should hash the same value from many goroutines: %s", err)
	}
}

func TestGenerateFixture(t *testing.T) {
	type leaf struct {
		Name  string `msgpack:"name"`
		Value uint64 `msgpack:"value"`
	}

	// sha256 of 82 a4 "name" a4 "bill" a5 "value" 2a.
	const exp = hashing.Hash("5ea6a1bec050cf40a219f9e68a0a10b5f1d064d65a1352c6f5f0d0e3acb5276c")

	g := hashing.New(hashing.Config{})

	h, err := g.Generate(leaf{Name: "bill", Value: 42})
	if err != nil {
		t.Fatalf("Should be able to hash the value: %s", err)
	}

	if h != exp {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get the known hash for the canonical encoding.")
	}
}

func TestGenerateFailure(t *testing.T) {
	g := hashing.New(hashing.Config{})

	_, err := g.Generate(make(chan int))
	if !errors.Is(err, hashing.ErrHashing) {
		t.Fatalf("Should get a hashing error for a value with no encoding, got %v", err)
	}
}

func TestIsHashCorrect(t *testing.T) {
	g := hashing.New(hashing.Config{})

	h, err := g.Generate(newEntry("bill"))
	if err != nil {
		t.Fatalf("Should be able to hash the value: %s", err)
	}

	ok, err := g.IsHashCorrect(h, newEntry("bill"))
	if err != nil || !ok {
		t.Fatalf("Should accept the hash of the same value: ok[%v] err[%v]", ok, err)
	}

	ok, err = g.IsHashCorrect(h, newEntry("ceasar"))
	if err != nil || ok {
		t.Fatalf("Should reject the hash for a different value: ok[%v] err[%v]", ok, err)
	}

	ok, err = g.IsHashCorrect(hashing.Hash(strings.ToUpper(string(h))), newEntry("bill"))
	if err != nil || ok {
		t.Fatalf("Should compare hashes character for character: ok[%v] err[%v]", ok, err)
	}
}

func TestGenerateList(t *testing.T) {
	g := hashing.New(hashing.Config{})

	ordered := []entry{newEntry("a"), newEntry("b"), newEntry("c")}
	shuffled := []entry{newEntry("c"), newEntry("a"), newEntry("b")}

	h1, err := hashing.GenerateList(g, ordered)
	if err != nil {
		t.Fatalf("Should be able to hash the ordered list: %s", err)
	}

	h2, err := hashing.GenerateList(g, shuffled)
	if err != nil {
		t.Fatalf("Should be able to hash the shuffled list: %s", err)
	}

	if string(h1) != string(h2) {
		t.Fatalf("Should get the same list hash regardless of input order.")
	}

	if shuffled[0].Name != "c" {
		t.Fatalf("Should not reorder the caller's slice.")
	}

	h3, err := hashing.GenerateList(g, ordered[:2])
	if err != nil {
		t.Fatalf("Should be able to hash a shorter list: %s", err)
	}
	if string(h3) == string(h1) {
		t.Fatalf("Should get a different hash for a different collection.")
	}
}

func TestStrategies(t *testing.T) {
	for _, name := range []string{hashing.StrategySHA256, hashing.StrategyKeccak256} {
		t.Run(name, func(t *testing.T) {
			fn, err := hashing.RetrieveStrategy(name)
			if err != nil {
				t.Fatalf("Should be able to retrieve the strategy: %s", err)
			}

			g := hashing.New(hashing.Config{Strategy: fn})
			h, err := g.Generate(newEntry("bill"))
			if err != nil {
				t.Fatalf("Should be able to hash with the strategy: %s", err)
			}
			if len(h) != 64 {
				t.Fatalf("Should get a 256 bit digest, got %d characters.", len(h))
			}
		})
	}

	if _, err := hashing.RetrieveStrategy("md5"); err == nil {
		t.Fatalf("Should not be able to retrieve an unknown strategy.")
	}

	sha, _ := hashing.RetrieveStrategy(hashing.StrategySHA256)
	keccak, _ := hashing.RetrieveStrategy(hashing.StrategyKeccak256)

	h1, _ := hashing.New(hashing.Config{Strategy: sha}).Generate(newEntry("bill"))
	h2, _ := hashing.New(hashing.Config{Strategy: keccak}).Generate(newEntry("bill"))
	if h1 == h2 {
		t.Fatalf("Should get different hashes from different strategies.")
	}
}
