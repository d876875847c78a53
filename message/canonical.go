// Package message implements the canonical encoding of a swap shared by the
// source chain, the validator and the destination chain, together with the
// signature scheme binding a swap to its redeem.
//
// The encoding is the Solidity packed encoding of
// (address sender, address recipient, uint256 sourceChainId,
// uint256 destChainId, uint128 amount, uint256 nonce); the hash is its
// Keccak-256. Validators sign the hash as an EIP-191 personal message.
package message

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/entity"
)

const (
	addressSize = common.AddressLength
	chainIDSize = 32
	amountSize  = 16
	nonceSize   = 32

	// Length is the size of a canonical message in bytes.
	Length = 2*addressSize + 2*chainIDSize + amountSize + nonceSize
)

var (
	ErrValueOutOfRange = errors.New("value out of range")
	ErrMissingField    = errors.New("missing field")
)

// Canonicalize returns the fixed layout encoding of rec:
// sender(20) | recipient(20) | sourceChainId(32) | destChainId(32) | amount(16) | nonce(32).
func Canonicalize(rec *entity.SwapRecord) ([]byte, error) {
	buf := make([]byte, 0, Length)
	buf = append(buf, rec.Sender.Bytes()...)
	buf = append(buf, rec.Recipient.Bytes()...)
	for _, field := range []struct {
		name  string
		value *big.Int
		size  int
	}{
		{"source chain id", rec.SourceChainID, chainIDSize},
		{"destination chain id", rec.DestChainID, chainIDSize},
		{"amount", rec.Amount, amountSize},
		{"nonce", rec.Nonce, nonceSize},
	} {
		b, err := packUint(field.value, field.size)
		if err != nil {
			return nil, fmt.Errorf("can't encode %s: %w", field.name, err)
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// Hash is the Keccak-256 of the canonical message.
func Hash(rec *entity.SwapRecord) (common.Hash, error) {
	msg, err := Canonicalize(rec)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(msg), nil
}

// SigningDigest is the EIP-191 personal message digest of hash, the value
// actually covered by a validator signature.
func SigningDigest(hash common.Hash) common.Hash {
	return common.BytesToHash(accounts.TextHash(hash.Bytes()))
}

func packUint(x *big.Int, size int) ([]byte, error) {
	if x == nil {
		return nil, ErrMissingField
	}
	if x.Sign() < 0 || x.BitLen() > size*8 {
		return nil, fmt.Errorf("%s does not fit uint%d: %w", x, size*8, ErrValueOutOfRange)
	}
	return common.LeftPadBytes(x.Bytes(), size), nil
}
