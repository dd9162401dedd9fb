package merkle_test

import (
	"cmp"
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
	"github.com/ardanlabs/powchain/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// data is a simple comparable value used to build trees.
type data struct {
	X string `msgpack:"x"`
}

func (d data) Compare(other data) int {
	return cmp.Compare(d.X, other.X)
}

// node mirrors the two field pair the tree hashes for a parent.
type node struct {
	Left  hashing.Hash `msgpack:"left"`
	Right hashing.Hash `msgpack:"right"`
}

func mustHash(t *testing.T, g *hashing.Generator, v any) hashing.Hash {
	t.Helper()

	h, err := g.Generate(v)
	if err != nil {
		t.Fatalf("Should be able to hash %v: %s", v, err)
	}

	return h
}

// =============================================================================

func TestCalculateRoot(t *testing.T) {
	g := hashing.New(hashing.Config{})

	a, b, c := data{X: "a"}, data{X: "b"}, data{X: "c"}

	t.Log("Given the need to calculate a merkle root over transactions.")
	{
		t.Logf("\tTest 0:\tWhen handling three values.")
		{
			hA, hB, hC := mustHash(t, g, a), mustHash(t, g, b), mustHash(t, g, c)
			left := mustHash(t, g, node{Left: hA, Right: hB})
			right := mustHash(t, g, node{Left: hC, Right: hC})
			exp := mustHash(t, g, node{Left: left, Right: right})

			root, err := merkle.CalculateRoot(g, []data{a, b, c})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to calculate the root: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to calculate the root.", success)

			if root != exp {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, root)
				t.Logf("\t%s\tTest 0:\texp: %s", failed, exp)
				t.Fatalf("\t%s\tTest 0:\tShould self pair the trailing odd value.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould self pair the trailing odd value.", success)

			shuffled, err := merkle.CalculateRoot(g, []data{c, a, b})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to calculate the shuffled root: %s", failed, err)
			}

			if shuffled != root {
				t.Fatalf("\t%s\tTest 0:\tShould get the same root regardless of input order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same root regardless of input order.", success)
		}

		t.Logf("\tTest 1:\tWhen handling a single value.")
		{
			hA := mustHash(t, g, a)
			exp := mustHash(t, g, node{Left: hA, Right: hA})

			root, err := merkle.CalculateRoot(g, []data{a})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to calculate the root: %s", failed, err)
			}

			if root != exp {
				t.Fatalf("\t%s\tTest 1:\tShould hash the value paired with itself.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould hash the value paired with itself.", success)
		}

		t.Logf("\tTest 2:\tWhen handling five values.")
		{
			d, e := data{X: "d"}, data{X: "e"}
			h := func(v data) hashing.Hash { return mustHash(t, g, v) }

			ab := mustHash(t, g, node{Left: h(a), Right: h(b)})
			cd := mustHash(t, g, node{Left: h(c), Right: h(d)})
			ee := mustHash(t, g, node{Left: h(e), Right: h(e)})
			abcd := mustHash(t, g, node{Left: ab, Right: cd})
			eeee := mustHash(t, g, node{Left: ee, Right: ee})
			exp := mustHash(t, g, node{Left: abcd, Right: eeee})

			root, err := merkle.CalculateRoot(g, []data{e, d, c, b, a})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to calculate the root: %s", failed, err)
			}

			if root != exp {
				t.Fatalf("\t%s\tTest 2:\tShould self pair odd nodes at every level.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould self pair odd nodes at every level.", success)
		}
	}
}

func TestCalculateRootFixture(t *testing.T) {
	g := hashing.New(hashing.Config{})

	// sha256 over the msgpack encoding of {"x": v} for the leaves and
	// {"left": l, "right": r} for the parents.
	const (
		leafA = hashing.Hash("9ccfb4c41a53f9103d405d99200040ae26a7bcf4543b90a9c62041b0c1368c0c")
		rootA = hashing.Hash("44fbdcbd2b8ac00449abbc9dfea56747ebb5f26da033886238b0bd8a6f71f4f2")
		root3 = hashing.Hash("b0ae96045ed31024aaca881fec98adab45701623a0df3386a4cbe391d7d77dd5")
	)

	if h := mustHash(t, g, data{X: "a"}); h != leafA {
		t.Fatalf("Should get the known leaf hash, got %s.", h)
	}

	tt := []struct {
		name   string
		values []data
		exp    hashing.Hash
	}{
		{name: "single", values: []data{{X: "a"}}, exp: rootA},
		{name: "three", values: []data{{X: "a"}, {X: "b"}, {X: "c"}}, exp: root3},
		{name: "three unordered", values: []data{{X: "c"}, {X: "b"}, {X: "a"}}, exp: root3},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			root, err := merkle.CalculateRoot(g, tst.values)
			if err != nil {
				t.Fatalf("Should be able to calculate the root: %s", err)
			}

			if root != tst.exp {
				t.Logf("got: %s", root)
				t.Logf("exp: %s", tst.exp)
				t.Fatalf("Should get the known root.")
			}
		})
	}

	tree, err := merkle.NewTree(g, []data{{X: "a"}, {X: "b"}, {X: "c"}})
	if err != nil {
		t.Fatalf("Should be able to build the tree: %s", err)
	}

	if exp := "0x" + string(root3); tree.RootHex() != exp {
		t.Fatalf("Should get the 0x prefixed root, got %s.", tree.RootHex())
	}
}

func TestCalculateRootEmpty(t *testing.T) {
	g := hashing.New(hashing.Config{})

	root, err := merkle.CalculateRoot(g, []data{})
	if !errors.Is(err, hashing.ErrHashing) {
		t.Fatalf("Should get a hashing error for an empty list, got %v", err)
	}

	if root != "" {
		t.Fatalf("Should not get a default hash for an empty list, got %s", root)
	}
}

func TestTree(t *testing.T) {
	g := hashing.New(hashing.Config{})
	values := []data{{X: "d"}, {X: "b"}, {X: "a"}, {X: "c"}, {X: "e"}}

	tree, err := merkle.NewTree(g, values)
	if err != nil {
		t.Fatalf("Should be able to build the tree: %s", err)
	}

	if err := tree.Verify(); err != nil {
		t.Fatalf("Should be able to verify the tree: %s", err)
	}

	for _, v := range values {
		if err := tree.VerifyData(v); err != nil {
			t.Fatalf("Should be able to verify %s is in the tree: %s", v.X, err)
		}

		proof, order, err := tree.Proof(v)
		if err != nil {
			t.Fatalf("Should be able to produce a proof for %s: %s", v.X, err)
		}

		ok, err := merkle.VerifyProof(g, mustHash(t, g, v), proof, order, tree.MerkleRoot)
		if err != nil || !ok {
			t.Fatalf("Should be able to verify the proof for %s: ok[%v] err[%v]", v.X, ok, err)
		}
	}

	if err := tree.VerifyData(data{X: "z"}); err == nil {
		t.Fatalf("Should not find a value that is not in the tree.")
	}

	got := tree.Values()
	if len(got) != len(values) {
		t.Fatalf("Should get the unique values back, got %d.", len(got))
	}

	for i, exp := range []string{"a", "b", "c", "d", "e"} {
		if got[i].X != exp {
			t.Fatalf("Should get the values back in natural order, got %s at %d.", got[i].X, i)
		}
	}

	root := tree.MerkleRoot
	if err := tree.Rebuild(); err != nil {
		t.Fatalf("Should be able to rebuild the tree: %s", err)
	}

	if tree.MerkleRoot != root {
		t.Fatalf("Should get the same root after a rebuild.")
	}

	tree.Leafs[0].Hash = mustHash(t, g, data{X: "z"})
	if err := tree.VerifyData(values[2]); err == nil {
		t.Fatalf("Should detect a tampered leaf through its parent.")
	}

	tree.MerkleRoot = hashing.ZeroHash
	if err := tree.Verify(); err == nil {
		t.Fatalf("Should detect a tampered root.")
	}
}
