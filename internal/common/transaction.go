package common

import "math/big"

// RawTransaction is one entry of a RawBlock's transactions list.
type RawTransaction map[string]interface{}

// Transaction is the normalized form of a RawTransaction. Legacy and typed
// transactions share the same field set; fields a transaction type doesn't
// carry are nil.
type Transaction struct {
	AccessList               interface{} `json:"accessList"`
	BlockHash                *string     `json:"blockHash"`
	BlockNumber              *uint64     `json:"blockNumber"`
	ChainID                  *uint64     `json:"chainId"`
	FromAddress              string      `json:"from"`
	Gas                      *uint64     `json:"gas"`
	GasPrice                 *big.Int    `json:"gasPrice"`
	GasPriceGwei             *float64    `json:"gasPrice_gwei"`
	Hash                     string      `json:"hash"`
	Input                    string      `json:"input"`
	MaxFeePerGas             *big.Int    `json:"maxFeePerGas"`
	MaxFeePerGasGwei         *float64    `json:"maxFeePerGas_gwei"`
	MaxPriorityFeePerGas     *big.Int    `json:"maxPriorityFeePerGas"`
	MaxPriorityFeePerGasGwei *float64    `json:"maxPriorityFeePerGas_gwei"`
	Nonce                    *uint64     `json:"nonce"`
	R                        string      `json:"r"`
	S                        string      `json:"s"`
	ToAddress                *string     `json:"to"`
	TransactionIndex         *uint64     `json:"transactionIndex"`
	TransactionType          *uint64     `json:"type"`
	V                        *uint64     `json:"v"`
	Value                    *big.Int    `json:"value"`
	ValueEth                 *float64    `json:"value_eth"`
	YParity                  *uint64     `json:"yParity"`
}
