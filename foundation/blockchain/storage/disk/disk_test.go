package disk_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/storage/disk"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func block(num uint64) database.Block {
	return database.Block{
		Header: database.BlockHeader{
			Number:    num,
			Version:   database.CurrentBlockVersion,
			TimeStamp: int64(1000 + num),
			Consent:   database.NewPoWConsent(database.PoWConsent{Nonce: num, Difficulty: 2, MillisecondsSpentMining: 15}),
		},
		Transactions: []database.Transaction{
			{ID: uuid.New(), From: "bill", To: "ceasar", Value: num, Data: []byte{0x01, 0x02}, TimeStamp: 1},
		},
		Hash: "00ab",
	}
}

func TestWriteAndRead(t *testing.T) {
	d, err := disk.New(t.TempDir(), nil)
	require.NoError(t, err)
	defer d.Close()

	for i := range uint64(3) {
		require.NoError(t, d.Write(block(i)))
	}

	require.Error(t, d.Write(block(5)), "out of order blocks must be rejected")

	exp := block(1)
	got, err := d.GetBlock(1)
	require.NoError(t, err)
	require.Equal(t, exp.Header, got.Header)
	require.Equal(t, exp.Hash, got.Hash)
	require.Len(t, got.Transactions, 1)
	require.Equal(t, uint64(1), got.Transactions[0].Value)
	require.Equal(t, []byte{0x01, 0x02}, []byte(got.Transactions[0].Data))

	_, err = d.GetBlock(9)
	require.True(t, errors.Is(err, database.ErrNotFound))
}

func TestIterateAndTruncate(t *testing.T) {
	dir := t.TempDir()

	d, err := disk.New(dir, nil)
	require.NoError(t, err)

	for i := range uint64(5) {
		require.NoError(t, d.Write(block(i)))
	}

	require.NoError(t, d.Truncate(3))

	var nums []uint64
	iter := d.ForEach()
	for b, err := iter.Next(); !iter.Done(); b, err = iter.Next() {
		require.NoError(t, err)
		nums = append(nums, b.Header.Number)
	}
	require.Equal(t, []uint64{0, 1, 2}, nums)

	require.NoError(t, d.Write(block(3)), "writing must continue after the truncated block")
	require.NoError(t, d.Close())

	reopened, err := disk.New(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetBlock(3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), got.Header.Number)

	require.NoError(t, reopened.Reset())
	_, err = reopened.GetBlock(0)
	require.True(t, errors.Is(err, database.ErrNotFound))
	require.NoError(t, reopened.Write(block(0)))
}
