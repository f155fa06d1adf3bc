package model

import "github.com/ethereum/go-ethereum/common"

// Token describes an ERC20 token on a given chain.
type Token struct {
	ChainID  uint64         `json:"chain_id"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
}

// NewToken builds a Token descriptor.
func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) Token {
	return Token{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// Label returns the symbol when known, otherwise the hex address.
func (t Token) Label() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}
