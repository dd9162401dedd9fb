// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain.
package merkle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree. Values are hashed through their canonical encoding and
// ordered by their natural order before the tree is built.
type Hashable[T any] interface {
	hashing.Comparable[T]
}

// pair is the two field node that is hashed to produce a parent hash.
type pair struct {
	Left  hashing.Hash `msgpack:"left"`
	Right hashing.Hash `msgpack:"right"`
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root       *Node[T]
	Leafs      []*Node[T]
	MerkleRoot hashing.Hash
	hasher     hashing.Hasher
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](hasher hashing.Hasher, values []T) (*Tree[T], error) {
	t := Tree[T]{
		hasher: hasher,
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// CalculateRoot builds the tree for the specified values and returns only
// the root hash.
func CalculateRoot[T Hashable[T]](hasher hashing.Hasher, values []T) (hashing.Hash, error) {
	t, err := NewTree(hasher, values)
	if err != nil {
		return "", err
	}

	return t.MerkleRoot, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch. The values are sorted into their natural order so the root
// is a function of the content and not of the order it was provided in.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: cannot build hash of empty list", hashing.ErrHashing)
	}

	sorted := slices.Clone(values)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return a.Compare(b)
	})

	var leafs []*Node[T]
	for _, value := range sorted {
		hash, err := t.hasher.Generate(value)
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	if len(leafs)%2 == 1 {
		duplicate := &Node[T]{
			Hash:  leafs[len(leafs)-1].Hash,
			Value: leafs[len(leafs)-1].Value,
			leaf:  true,
			dup:   true,
			Tree:  t,
		}
		leafs = append(leafs, duplicate)
	}

	root, err := buildIntermediate(leafs, t)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.Values())
}

// Proof returns the set of hashes and the order of combining those hashes
// for proving a value is in the tree. An order of 0 means the proof hash is
// the left side of the pair, 1 means it is the right side.
func (t *Tree[T]) Proof(data T) ([]hashing.Hash, []int64, error) {
	for _, node := range t.Leafs {
		if node.Value.Compare(data) != 0 {
			continue
		}

		var merkleProof []hashing.Hash
		var order []int64
		nodeParent := node.Parent

		for nodeParent != nil {
			if nodeParent.Left == node {
				merkleProof = append(merkleProof, nodeParent.Right.Hash)
				order = append(order, 1) // right leaf, combine second.
			} else {
				merkleProof = append(merkleProof, nodeParent.Left.Hash)
				order = append(order, 0) // left leaf, combine first.
			}
			node = nodeParent
			nodeParent = nodeParent.Parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify validates the hashes at each level of the tree and returns an
// error if the resulting hash at the root of the tree does not match the
// stored root hash.
func (t *Tree[T]) Verify() error {
	calculatedMerkleRoot, err := t.Root.verify()
	if err != nil {
		return err
	}

	if t.MerkleRoot != calculatedMerkleRoot {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if
// the hashes on the path from its leaf to the root are valid.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if node.Value.Compare(data) != 0 {
			continue
		}

		currentParent := node.Parent
		for currentParent != nil {
			ok, err := hashing.IsHashCorrect(t.hasher, currentParent.Hash, pair{
				Left:  currentParent.Left.Hash,
				Right: currentParent.Right.Hash,
			})
			if err != nil {
				return err
			}

			if !ok {
				return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
			}

			currentParent = currentParent.Parent
		}

		return nil
	}

	return errors.New("unable to find data in tree")
}

// Values returns a slice of unique values stored in the tree in their
// natural order.
func (t *Tree[T]) Values() []T {
	var values []T
	for _, node := range t.Leafs {
		if node.dup {
			continue
		}
		values = append(values, node.Value)
	}

	return values
}

// RootHex converts the merkle root hash to a 0x prefixed hex string.
func (t *Tree[T]) RootHex() string {
	return t.MerkleRoot.Hex()
}

// =============================================================================

// VerifyProof checks a proof produced by Tree.Proof against a leaf hash and
// an expected root without needing the tree.
func VerifyProof(hasher hashing.Hasher, leaf hashing.Hash, proof []hashing.Hash, order []int64, root hashing.Hash) (bool, error) {
	if len(proof) != len(order) {
		return false, errors.New("proof and order lengths differ")
	}

	current := leaf
	for i, sibling := range proof {
		p := pair{Left: sibling, Right: current}
		if order[i] == 1 {
			p = pair{Left: current, Right: sibling}
		}

		hash, err := hasher.Generate(p)
		if err != nil {
			return false, err
		}
		current = hash
	}

	return current == root, nil
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   hashing.Hash
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() (hashing.Hash, error) {
	if n.leaf {
		return n.Tree.hasher.Generate(n.Value)
	}

	leftHash, err := n.Left.verify()
	if err != nil {
		return "", err
	}

	rightHash, err := n.Right.verify()
	if err != nil {
		return "", err
	}

	return n.Tree.hasher.Generate(pair{Left: leftHash, Right: rightHash})
}

// =============================================================================

// buildIntermediate is a helper function that for a given list of nodes,
// constructs the next level of the tree. When a level has an odd number of
// nodes, the last node is paired with itself. Returns the resulting root node
// of the tree.
func buildIntermediate[T Hashable[T]](nl []*Node[T], t *Tree[T]) (*Node[T], error) {
	var nodes []*Node[T]

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if i+1 == len(nl) {
			right = i
		}

		hash, err := t.hasher.Generate(pair{Left: nl[left].Hash, Right: nl[right].Hash})
		if err != nil {
			return nil, err
		}

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  hash,
			Tree:  t,
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n

		if len(nl) == 2 {
			return &n, nil
		}
	}

	return buildIntermediate(nodes, t)
}
