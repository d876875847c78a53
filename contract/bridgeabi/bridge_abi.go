package bridgeabi

//nolint:golint
import (
	_ "embed"

	"github.com/omni/tokenbridge-core/contract/abi"
)

//go:embed bridge.json
var bridgeJSONABI string

const (
	SwapInitialized = "event SwapInitialized(address indexed sender, address indexed recipient, uint256 sourceChainId, uint256 destChainId, uint128 amount, uint256 nonce)"
	Redeemed        = "event Redeemed(address indexed sender, address indexed recipient, uint256 sourceChainId, uint256 destChainId, uint128 amount, uint256 nonce)"
)

var (
	BridgeABI = abi.MustReadABI(bridgeJSONABI)

	SwapInitializedEventSignature = BridgeABI.Events["SwapInitialized"].ID
	RedeemedEventSignature        = BridgeABI.Events["Redeemed"].ID
)
