package common

import "math/big"

// RawBlock is the block object exactly as returned by eth_getBlockByNumber,
// hex-encoded fields included. Transactions are embedded when the request
// asked for full transaction objects.
type RawBlock map[string]interface{}

// Block is the normalized form of a RawBlock: every hex quantity converted to
// a decimal integer plus derived human-readable fields. Optional fields that
// were absent on the wire stay nil rather than zero.
type Block struct {
	Number                uint64        `json:"number"`
	Hash                  string        `json:"hash"`
	ParentHash            string        `json:"parentHash"`
	Nonce                 *uint64       `json:"nonce"`
	Miner                 string        `json:"miner"`
	MixHash               string        `json:"mixHash"`
	Sha3Uncles            string        `json:"sha3Uncles"`
	StateRoot             string        `json:"stateRoot"`
	ReceiptsRoot          string        `json:"receiptsRoot"`
	LogsBloom             string        `json:"logsBloom"`
	ParentBeaconBlockRoot string        `json:"parentBeaconBlockRoot"`
	Difficulty            *big.Int      `json:"difficulty"`
	Size                  uint64        `json:"size"`
	GasLimit              uint64        `json:"gasLimit"`
	GasUsed               uint64        `json:"gasUsed"`
	BaseFeePerGas         *uint64       `json:"baseFeePerGas"`
	BaseFeePerGasGwei     *float64      `json:"baseFeePerGas_gwei"`
	BlobGasUsed           *uint64       `json:"blobGasUsed"`
	ExcessBlobGas         *uint64       `json:"excessBlobGas"`
	ExtraData             string        `json:"extraData"`
	Timestamp             uint64        `json:"timestamp"`
	TimestampReadable     string        `json:"timestamp_readable"`
	Transactions          []Transaction `json:"transactions,omitempty"`
}
