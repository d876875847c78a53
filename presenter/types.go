package presenter

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/message"
)

type AuthorizationResult struct {
	BridgeID  string
	ChainID   string
	Contract  common.Address
	Admin     common.Address
	Validator common.Address
	UpdatedAt *time.Time `json:",omitempty"`
}

type RedemptionInfo struct {
	MsgHash    common.Hash
	Sender     common.Address
	Recipient  common.Address
	Amount     *entity.Numeric
	RedeemedAt *time.Time `json:",omitempty"`
}

type RedemptionResult struct {
	BridgeID   string
	ChainID    string
	Nonce      *entity.Numeric
	Redeemed   bool
	Redemption *RedemptionInfo `json:",omitempty"`
}

type SwapInfo struct {
	Sender        common.Address
	Recipient     common.Address
	SourceChainID *entity.Numeric
	DestChainID   *entity.Numeric
	Amount        *entity.Numeric
	Nonce         *entity.Numeric
}

type EventInfo struct {
	ID     uint
	Kind   entity.EventKind
	Swap   *SwapInfo
	SeenAt *time.Time `json:",omitempty"`
}

type EventsResult struct {
	BridgeID string
	ChainID  string
	Events   []*EventInfo
	// NextFromID continues the listing, zero when the page is not full.
	NextFromID uint `json:",omitempty"`
}

type TxInfo struct {
	ChainID     string
	BlockNumber uint
	TxHash      common.Hash
	Link        string
}

type AttestationInfo struct {
	MsgHash      common.Hash
	Swap         *SwapInfo
	Signer       common.Address
	Signature    *message.Signature
	SignatureHex string
	Tx           *TxInfo `json:",omitempty"`
}

type AttestationsResult struct {
	BridgeID     string
	DestChainID  string
	Nonce        *entity.Numeric
	Attestations []*AttestationInfo
}
