package presenter

import (
	"fmt"

	"github.com/omni/tokenbridge-core/entity"
)

var formats = map[string]string{
	"1":        "https://etherscan.io/tx/%s",
	"5":        "https://goerli.etherscan.io/tx/%s",
	"56":       "https://bscscan.com/tx/%s",
	"97":       "https://testnet.bscscan.com/tx/%s",
	"100":      "https://gnosisscan.io/tx/%s",
	"137":      "https://polygonscan.com/tx/%s",
	"11155111": "https://sepolia.etherscan.io/tx/%s",
}

func logToTxInfo(log *entity.Log) *TxInfo {
	link := log.TransactionHash.String()
	if format, ok := formats[log.ChainID]; ok {
		link = fmt.Sprintf(format, log.TransactionHash)
	}
	return &TxInfo{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TransactionHash,
		Link:        link,
	}
}

func recordToSwapInfo(rec *entity.SwapRecord) *SwapInfo {
	return &SwapInfo{
		Sender:        rec.Sender,
		Recipient:     rec.Recipient,
		SourceChainID: entity.NewNumeric(rec.SourceChainID),
		DestChainID:   entity.NewNumeric(rec.DestChainID),
		Amount:        entity.NewNumeric(rec.Amount),
		Nonce:         entity.NewNumeric(rec.Nonce),
	}
}

func eventToInfo(e *entity.BridgeEvent) *EventInfo {
	return &EventInfo{
		ID:     e.ID,
		Kind:   e.Kind,
		Swap:   recordToSwapInfo(e.Record()),
		SeenAt: e.CreatedAt,
	}
}

func redemptionToInfo(r *entity.Redemption) *RedemptionInfo {
	return &RedemptionInfo{
		MsgHash:    r.MsgHash,
		Sender:     r.Sender,
		Recipient:  r.Recipient,
		Amount:     r.Amount,
		RedeemedAt: r.CreatedAt,
	}
}
