package message

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/entity"
)

type Signer interface {
	Address() common.Address
	// Sign signs a canonical message hash as an EIP-191 personal message.
	Sign(hash common.Hash) (Signature, error)
}

type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("can't parse private key: %w", err)
	}
	return NewKeySigner(key), nil
}

// GenerateKeySigner creates a signer with a random key, meant for tests.
func GenerateKeySigner() (*KeySigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("can't generate private key: %w", err)
	}
	return NewKeySigner(key), nil
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) Sign(hash common.Hash) (Signature, error) {
	sig, err := crypto.Sign(SigningDigest(hash).Bytes(), s.key)
	if err != nil {
		return Signature{}, fmt.Errorf("can't sign message hash: %w", err)
	}
	sig[64] += 27
	return SignatureFromBytes(sig)
}

// SignRecord signs the canonical hash of rec and returns both.
func SignRecord(s Signer, rec *entity.SwapRecord) (common.Hash, Signature, error) {
	hash, err := Hash(rec)
	if err != nil {
		return common.Hash{}, Signature{}, err
	}
	sig, err := s.Sign(hash)
	if err != nil {
		return common.Hash{}, Signature{}, err
	}
	return hash, sig, nil
}
