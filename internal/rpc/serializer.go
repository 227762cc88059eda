package rpc

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/chainbatch/ingestor/internal/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errFieldMissing = errors.New("required field missing")

// SerializeBlock normalizes a raw block: every hex quantity becomes a decimal
// integer, value fields gain gwei/eth-scaled variants and the timestamp gains
// a UTC string form. Embedded transactions are serialized onto
// Block.Transactions; the caller decides whether to detach them.
func SerializeBlock(raw common.RawBlock) (common.Block, error) {
	number, err := requiredUint64(raw, "number")
	if err != nil {
		return common.Block{}, err
	}
	timestamp, err := requiredUint64(raw, "timestamp")
	if err != nil {
		return common.Block{}, err
	}

	block := common.Block{
		Number:                number,
		Hash:                  stringField(raw, "hash"),
		ParentHash:            stringField(raw, "parentHash"),
		Miner:                 stringField(raw, "miner"),
		MixHash:               stringField(raw, "mixHash"),
		Sha3Uncles:            stringField(raw, "sha3Uncles"),
		StateRoot:             stringField(raw, "stateRoot"),
		ReceiptsRoot:          stringField(raw, "receiptsRoot"),
		LogsBloom:             stringField(raw, "logsBloom"),
		ParentBeaconBlockRoot: stringField(raw, "parentBeaconBlockRoot"),
		ExtraData:             printableFromHex(stringField(raw, "extraData")),
		Timestamp:             timestamp,
		TimestampReadable:     time.Unix(int64(timestamp), 0).UTC().Format("2006-01-02 15:04:05 UTC"),
	}

	if block.Nonce, err = optionalUint64(raw, "nonce"); err != nil {
		return common.Block{}, err
	}
	if block.Difficulty, err = optionalBigInt(raw, "difficulty"); err != nil {
		return common.Block{}, err
	}
	sizePtr, err := optionalUint64(raw, "size")
	if err != nil {
		return common.Block{}, err
	}
	if sizePtr != nil {
		block.Size = *sizePtr
	}
	gasLimit, err := optionalUint64(raw, "gasLimit")
	if err != nil {
		return common.Block{}, err
	}
	if gasLimit != nil {
		block.GasLimit = *gasLimit
	}
	gasUsed, err := optionalUint64(raw, "gasUsed")
	if err != nil {
		return common.Block{}, err
	}
	if gasUsed != nil {
		block.GasUsed = *gasUsed
	}
	if block.BaseFeePerGas, err = optionalUint64(raw, "baseFeePerGas"); err != nil {
		return common.Block{}, err
	}
	block.BaseFeePerGasGwei = gweiFromUint64(block.BaseFeePerGas)
	if block.BlobGasUsed, err = optionalUint64(raw, "blobGasUsed"); err != nil {
		return common.Block{}, err
	}
	if block.ExcessBlobGas, err = optionalUint64(raw, "excessBlobGas"); err != nil {
		return common.Block{}, err
	}

	block.Transactions, err = serializeTransactions(raw["transactions"])
	if err != nil {
		return common.Block{}, err
	}
	return block, nil
}

func serializeTransactions(raw interface{}) ([]common.Transaction, error) {
	if raw == nil {
		return []common.Transaction{}, nil
	}
	entries, ok := raw.([]interface{})
	if !ok {
		return nil, &MalformedRecordError{Field: "transactions", Value: fmt.Sprintf("%T", raw), Err: errors.New("not a list")}
	}
	transactions := make([]common.Transaction, 0, len(entries))
	for _, entry := range entries {
		txMap, ok := entry.(map[string]interface{})
		if !ok {
			return nil, &MalformedRecordError{Field: "transactions", Value: fmt.Sprintf("%T", entry), Err: errors.New("entry is not an object")}
		}
		tx, err := SerializeTransaction(common.RawTransaction(txMap))
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// SerializeTransaction normalizes one raw transaction. Fields a transaction
// type doesn't carry (legacy vs typed) come out nil instead of failing.
func SerializeTransaction(raw common.RawTransaction) (common.Transaction, error) {
	tx := common.Transaction{
		AccessList:  accessListField(raw),
		FromAddress: stringField(raw, "from"),
		Hash:        stringField(raw, "hash"),
		Input:       stringField(raw, "input"),
		R:           stringField(raw, "r"),
		S:           stringField(raw, "s"),
		BlockHash:   optionalString(raw, "blockHash"),
		ToAddress:   optionalString(raw, "to"),
	}

	var err error
	if tx.BlockNumber, err = optionalUint64(raw, "blockNumber"); err != nil {
		return common.Transaction{}, err
	}
	if tx.ChainID, err = optionalUint64(raw, "chainId"); err != nil {
		return common.Transaction{}, err
	}
	if tx.Gas, err = optionalUint64(raw, "gas"); err != nil {
		return common.Transaction{}, err
	}
	if tx.GasPrice, err = optionalBigInt(raw, "gasPrice"); err != nil {
		return common.Transaction{}, err
	}
	tx.GasPriceGwei = gweiFromBigInt(tx.GasPrice)
	if tx.MaxFeePerGas, err = optionalBigInt(raw, "maxFeePerGas"); err != nil {
		return common.Transaction{}, err
	}
	tx.MaxFeePerGasGwei = gweiFromBigInt(tx.MaxFeePerGas)
	if tx.MaxPriorityFeePerGas, err = optionalBigInt(raw, "maxPriorityFeePerGas"); err != nil {
		return common.Transaction{}, err
	}
	tx.MaxPriorityFeePerGasGwei = gweiFromBigInt(tx.MaxPriorityFeePerGas)
	if tx.Nonce, err = optionalUint64(raw, "nonce"); err != nil {
		return common.Transaction{}, err
	}
	if tx.TransactionIndex, err = optionalUint64(raw, "transactionIndex"); err != nil {
		return common.Transaction{}, err
	}
	if tx.TransactionType, err = optionalUint64(raw, "type"); err != nil {
		return common.Transaction{}, err
	}
	if tx.V, err = optionalUint64(raw, "v"); err != nil {
		return common.Transaction{}, err
	}
	if tx.Value, err = optionalBigInt(raw, "value"); err != nil {
		return common.Transaction{}, err
	}
	tx.ValueEth = ethFromBigInt(tx.Value)
	if tx.YParity, err = optionalUint64(raw, "yParity"); err != nil {
		return common.Transaction{}, err
	}
	return tx, nil
}

func requiredUint64(record map[string]interface{}, field string) (uint64, error) {
	value, err := optionalUint64(record, field)
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, &MalformedRecordError{Field: field, Err: errFieldMissing}
	}
	return *value, nil
}

// optionalUint64 parses a hex quantity, tolerating the zero-padded fixed-width
// encodings some endpoints use (e.g. block nonce "0x0000000000000000").
func optionalUint64(record map[string]interface{}, field string) (*uint64, error) {
	value, ok := record[field]
	if !ok || value == nil {
		return nil, nil
	}
	hexStr, ok := value.(string)
	if !ok {
		return nil, &MalformedRecordError{Field: field, Value: fmt.Sprintf("%v", value), Err: errors.New("not a hex string")}
	}
	parsed, err := strconv.ParseUint(strings.TrimPrefix(hexStr, "0x"), 16, 64)
	if err != nil {
		return nil, &MalformedRecordError{Field: field, Value: hexStr, Err: err}
	}
	return &parsed, nil
}

func optionalBigInt(record map[string]interface{}, field string) (*big.Int, error) {
	value, ok := record[field]
	if !ok || value == nil {
		return nil, nil
	}
	hexStr, ok := value.(string)
	if !ok {
		return nil, &MalformedRecordError{Field: field, Value: fmt.Sprintf("%v", value), Err: errors.New("not a hex string")}
	}
	parsed, ok := new(big.Int).SetString(strings.TrimPrefix(hexStr, "0x"), 16)
	if !ok {
		return nil, &MalformedRecordError{Field: field, Value: hexStr, Err: errors.New("invalid hex quantity")}
	}
	return parsed, nil
}

func stringField(record map[string]interface{}, field string) string {
	if s, ok := record[field].(string); ok {
		return s
	}
	return ""
}

func optionalString(record map[string]interface{}, field string) *string {
	if s, ok := record[field].(string); ok {
		return &s
	}
	return nil
}

func accessListField(record map[string]interface{}) interface{} {
	if list, ok := record["accessList"]; ok && list != nil {
		return list
	}
	return []interface{}{}
}

func gweiFromUint64(value *uint64) *float64 {
	if value == nil {
		return nil
	}
	gwei := float64(*value) / 1e9
	return &gwei
}

func gweiFromBigInt(value *big.Int) *float64 {
	return scaledFloat(value, 1e9)
}

func ethFromBigInt(value *big.Int) *float64 {
	return scaledFloat(value, 1e18)
}

func scaledFloat(value *big.Int, divisor float64) *float64 {
	if value == nil {
		return nil
	}
	f, _ := new(big.Float).SetInt(value).Float64()
	scaled := f / divisor
	return &scaled
}

// printableFromHex decodes a hex byte string to text, dropping anything
// non-printable. Used for free-form fields like extraData; decode failures
// yield an empty string rather than an error.
func printableFromHex(hexStr string) string {
	if hexStr == "" {
		return ""
	}
	decoded, err := hexutil.Decode(hexStr)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range decoded {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		}
	}
	return b.String()
}
