// Package disk implements the ability to read and write blocks to disk
// using a bolt database file.
package disk

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powchain/foundation/blockchain/codec"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

// fileName is the name of the database file inside the db path.
const fileName = "blocks.bolt"

var bucketBlocks = []byte("blocks")

// Disk represents the serialization implementation for reading and storing
// blocks in a bolt database, keyed by block number. This implements the
// database.Storage interface.
type Disk struct {
	dir   string
	bdb   *bolt.DB
	codec *codec.Codec
}

// New opens or creates the bolt database file inside the specified directory.
func New(dir string, c *codec.Codec) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "storage/disk: failed to create db path")
	}

	if c == nil {
		c = codec.New()
	}

	bdb, err := bolt.Open(filepath.Join(dir, fileName), 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "storage/disk: failed to open or create database file")
	}

	d := Disk{
		dir:   dir,
		bdb:   bdb,
		codec: c,
	}

	if err := d.bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlocks)
		return err
	}); err != nil {
		bdb.Close()
		return nil, errors.Wrap(err, "storage/disk: failed to create block bucket")
	}

	return &d, nil
}

// Close the database file.
func (d *Disk) Close() error {
	return errors.Wrap(d.bdb.Close(), "storage/disk: failed to close")
}

// Write takes the specified database block and stores it under its number.
// Blocks must be written in order.
func (d *Disk) Write(block database.Block) error {
	data, err := d.codec.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "storage/disk: failed to encode block")
	}

	err = d.bdb.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketBlocks)

		next := uint64(0)
		if k, _ := bkt.Cursor().Last(); k != nil {
			next = binary.BigEndian.Uint64(k) + 1
		}

		if block.Header.Number != next {
			return errors.Errorf("block is out of order, got %d, exp %d", block.Header.Number, next)
		}

		return bkt.Put(key(block.Header.Number), data)
	})

	return errors.Wrapf(err, "storage/disk: failed to put block %d", block.Header.Number)
}

// GetBlock reads the block with the specified number.
func (d *Disk) GetBlock(num uint64) (database.Block, error) {
	var block database.Block

	err := d.bdb.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketBlocks).Get(key(num))
		if data == nil {
			return errors.Wrapf(database.ErrNotFound, "number %d", num)
		}

		return errors.Wrap(d.codec.Unmarshal(data, &block), "failed to decode block")
	})

	if err != nil {
		return database.Block{}, errors.WithMessage(err, "storage/disk")
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{storage: d}
}

// Truncate removes the block with the specified number and every block
// after it.
func (d *Disk) Truncate(from uint64) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketBlocks)

		// Deleting while moving a cursor skips keys, collect them first.
		var keys [][]byte
		c := bkt.Cursor()
		for k, _ := c.Seek(key(from)); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}

		for _, k := range keys {
			if err := bkt.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})

	return errors.Wrapf(err, "storage/disk: failed to truncate from %d", from)
}

// Reset will clear out the blockchain in the database file.
func (d *Disk) Reset() error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketBlocks); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}

		_, err := tx.CreateBucket(bucketBlocks)
		return err
	})

	return errors.Wrap(err, "storage/disk: failed to reset")
}

// key encodes a block number so keys sort in chain order.
func key(num uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, num)
	return k
}

// =============================================================================

// diskIterator represents the iteration implementation for walking through
// and reading blocks from the database file. This implements the database
// Iterator interface.
type diskIterator struct {
	storage *Disk  // Access to the storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the database file.
func (di *diskIterator) Next() (database.Block, error) {
	if di.eoc {
		return database.Block{}, errors.New("end of chain")
	}

	block, err := di.storage.GetBlock(di.current)
	if errors.Is(err, database.ErrNotFound) {
		di.eoc = true
	}

	di.current++

	return block, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
