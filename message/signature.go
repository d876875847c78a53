package message

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/utils"
)

// Signature is a recoverable secp256k1 signature split the way it is passed
// to the bridge contract.
type Signature struct {
	V uint8       `json:"v"`
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
}

// SignatureFromBytes splits a 65 byte r || s || v signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("got %d bytes: %w", len(b), utils.ErrInvalidSignatureLength)
	}
	return Signature{
		V: b[64],
		R: common.BytesToHash(b[:32]),
		S: common.BytesToHash(b[32:64]),
	}, nil
}

// ParseSignature decodes a 0x-prefixed hex signature.
func ParseSignature(s string) (Signature, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Signature{}, fmt.Errorf("can't decode signature: %w", err)
	}
	return SignatureFromBytes(b)
}

func (s Signature) Bytes() []byte {
	b := make([]byte, 0, crypto.SignatureLength)
	b = append(b, s.R.Bytes()...)
	b = append(b, s.S.Bytes()...)
	return append(b, s.V)
}

func (s Signature) String() string {
	return hexutil.Encode(s.Bytes())
}

// RecoverSigner returns the address whose signature over SigningDigest(hash) is sig.
func RecoverSigner(hash common.Hash, sig Signature) (common.Address, error) {
	return utils.RestoreSignerAddress(hash.Bytes(), sig.Bytes())
}
