package rpc

import (
	"testing"

	"github.com/chainbatch/ingestor/internal/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawBlockFixture() common.RawBlock {
	return common.RawBlock{
		"number":                "0x1b4",
		"hash":                  "0x9b83c12c69edb74f6c8dd5d052765c1adf940e320bd1291696e6fa07829eee71",
		"parentHash":            "0x6bafb464610e29dd4aa218a7a173c89444765f80f6b6e31b90a53ed3cbd26b46",
		"nonce":                 "0x0000000000000042",
		"miner":                 "0xbb7b8287f3f0a933474a79eae42cbca977791171",
		"sha3Uncles":            "0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347",
		"stateRoot":             "0xd67e4d450343046425ae4271474353857ab860dbc0a1dde64b41b5cd3a532bf3",
		"receiptsRoot":          "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421",
		"logsBloom":             "0x00",
		"difficulty":            "0x4ea3f27bc",
		"size":                  "0x220",
		"gasLimit":              "0x1c9c380",
		"gasUsed":               "0x79ccd3",
		"baseFeePerGas":         "0x3b9aca00",
		"timestamp":             "0x55ba467c",
		"extraData":             "0x476574682f76312e302e302f6c696e75782f676f312e342e32",
		"transactions":          []interface{}{rawTransactionFixture()},
		"parentBeaconBlockRoot": "0x531a47acf24eebfc2b70d03060a20569d1d06f3eac35c4a9255665cbd3602eed",
	}
}

func rawTransactionFixture() map[string]interface{} {
	return map[string]interface{}{
		"hash":                 "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b",
		"blockHash":            "0x9b83c12c69edb74f6c8dd5d052765c1adf940e320bd1291696e6fa07829eee71",
		"blockNumber":          "0x1b4",
		"from":                 "0xa7d9ddbe1f17865597fbd27ec712455208b6b76d",
		"to":                   "0xf02c1c8e6114b1dbe8937a39260b5b0a374432bb",
		"gas":                  "0x5208",
		"gasPrice":             "0x3b9aca00",
		"value":                "0xde0b6b3a7640000",
		"input":                "0x",
		"nonce":                "0x15",
		"transactionIndex":     "0x0",
		"type":                 "0x2",
		"chainId":              "0x1",
		"maxFeePerGas":         "0x77359400",
		"maxPriorityFeePerGas": "0x3b9aca00",
		"v":                    "0x1",
		"r":                    "0x88ff6cf0fefd94db46111149ae4bfc179e9b94721fffd821d38d16464b3f71d0",
		"s":                    "0x45e0aff800961cfce805daef7016b9b675c137a6a41a548f7b60a3484c06a33a",
		"yParity":              "0x1",
	}
}

func TestSerializeBlock(t *testing.T) {
	block, err := SerializeBlock(rawBlockFixture())
	require.NoError(t, err)

	assert.Equal(t, uint64(436), block.Number)
	assert.Equal(t, "0x9b83c12c69edb74f6c8dd5d052765c1adf940e320bd1291696e6fa07829eee71", block.Hash)
	require.NotNil(t, block.Nonce)
	assert.Equal(t, uint64(0x42), *block.Nonce)
	require.NotNil(t, block.Difficulty)
	assert.Equal(t, "21109876668", block.Difficulty.String())
	assert.Equal(t, uint64(0x220), block.Size)
	assert.Equal(t, uint64(30000000), block.GasLimit)
	require.NotNil(t, block.BaseFeePerGas)
	assert.Equal(t, uint64(1000000000), *block.BaseFeePerGas)
	require.NotNil(t, block.BaseFeePerGasGwei)
	assert.Equal(t, 1.0, *block.BaseFeePerGasGwei)
	assert.Equal(t, uint64(1438271100), block.Timestamp)
	assert.Equal(t, "2015-07-30 15:45:00 UTC", block.TimestampReadable)
	assert.Equal(t, "Geth/v1.0.0/linux/go1.4.2", block.ExtraData)
	assert.Nil(t, block.BlobGasUsed)
	assert.Nil(t, block.ExcessBlobGas)
	require.Len(t, block.Transactions, 1)
}

func TestSerializeBlockIsDeterministic(t *testing.T) {
	first, err := SerializeBlock(rawBlockFixture())
	require.NoError(t, err)
	second, err := SerializeBlock(rawBlockFixture())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSerializeBlockToleratesAbsentOptionalFields(t *testing.T) {
	block, err := SerializeBlock(common.RawBlock{
		"number":    "0x10",
		"timestamp": "0x55ba467c",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(16), block.Number)
	assert.Nil(t, block.Nonce)
	assert.Nil(t, block.Difficulty)
	assert.Nil(t, block.BaseFeePerGas)
	assert.Nil(t, block.BaseFeePerGasGwei)
	assert.Empty(t, block.ExtraData)
	assert.Empty(t, block.Transactions)
}

func TestSerializeBlockMalformedHex(t *testing.T) {
	_, err := SerializeBlock(common.RawBlock{
		"number":    "0xzz",
		"timestamp": "0x55ba467c",
	})
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "number", malformed.Field)

	_, err = SerializeBlock(common.RawBlock{
		"number":     "0x10",
		"timestamp":  "0x55ba467c",
		"difficulty": 42.0,
	})
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "difficulty", malformed.Field)
}

func TestSerializeBlockMissingRequiredField(t *testing.T) {
	_, err := SerializeBlock(common.RawBlock{"timestamp": "0x55ba467c"})
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "number", malformed.Field)
}

func TestSerializeTransaction(t *testing.T) {
	tx, err := SerializeTransaction(rawTransactionFixture())
	require.NoError(t, err)

	assert.Equal(t, "0xa7d9ddbe1f17865597fbd27ec712455208b6b76d", tx.FromAddress)
	require.NotNil(t, tx.ToAddress)
	assert.Equal(t, "0xf02c1c8e6114b1dbe8937a39260b5b0a374432bb", *tx.ToAddress)
	require.NotNil(t, tx.Value)
	assert.Equal(t, "1000000000000000000", tx.Value.String())
	require.NotNil(t, tx.ValueEth)
	assert.Equal(t, 1.0, *tx.ValueEth)
	require.NotNil(t, tx.GasPriceGwei)
	assert.Equal(t, 1.0, *tx.GasPriceGwei)
	require.NotNil(t, tx.MaxFeePerGasGwei)
	assert.Equal(t, 2.0, *tx.MaxFeePerGasGwei)
	require.NotNil(t, tx.Nonce)
	assert.Equal(t, uint64(0x15), *tx.Nonce)
	require.NotNil(t, tx.TransactionType)
	assert.Equal(t, uint64(2), *tx.TransactionType)
	require.NotNil(t, tx.YParity)
	assert.Equal(t, uint64(1), *tx.YParity)
}

func TestSerializeTransactionLegacyFieldsAreNil(t *testing.T) {
	tx, err := SerializeTransaction(common.RawTransaction{
		"hash":     "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b",
		"from":     "0xa7d9ddbe1f17865597fbd27ec712455208b6b76d",
		"gas":      "0x5208",
		"gasPrice": "0x3b9aca00",
		"value":    "0x0",
		"nonce":    "0x0",
		"input":    "0x",
	})
	require.NoError(t, err)

	assert.Nil(t, tx.MaxFeePerGas)
	assert.Nil(t, tx.MaxFeePerGasGwei)
	assert.Nil(t, tx.MaxPriorityFeePerGas)
	assert.Nil(t, tx.ChainID)
	assert.Nil(t, tx.YParity)
	assert.Nil(t, tx.ToAddress)
	assert.Equal(t, []interface{}{}, tx.AccessList)
	require.NotNil(t, tx.ValueEth)
	assert.Equal(t, 0.0, *tx.ValueEth)
}

func TestHexRoundTrip(t *testing.T) {
	for _, input := range []string{"0x0", "0x1b4", "0x5208", "0xde0b6b3a7640000"} {
		parsed, err := optionalUint64(map[string]interface{}{"field": input}, "field")
		require.NoError(t, err)
		require.NotNil(t, parsed)
		assert.Equal(t, input, hexutil.EncodeUint64(*parsed))
	}
}

func TestPrintableFromHexDropsNonPrintable(t *testing.T) {
	assert.Equal(t, "Geth", printableFromHex("0x00476574680001"))
	assert.Equal(t, "", printableFromHex("0x"))
	assert.Equal(t, "", printableFromHex("not hex"))
}
