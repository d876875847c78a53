// Package attestation is the off-chain validator: it follows SwapInitialized
// logs of a bridge contract and signs the canonical message of every swap
// heading to the counterparty chain.
package attestation

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/contract"
	"github.com/omni/tokenbridge-core/contract/bridgeabi"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/repository"
	"github.com/omni/tokenbridge-core/utils"
)

const retryInterval = 10 * time.Second

const (
	statusSigned  = "signed"
	statusSkipped = "skipped"
)

// Watcher attests the swaps initiated on one side of a bridge.
type Watcher struct {
	bridgeID     string
	cfg          *config.BridgeSideConfig
	counterparty *config.BridgeSideConfig
	logger       logging.Logger
	repo         *repository.Repo
	client       ethclient.Client
	contract     *contract.BridgeContract
	signer       message.Signer
	logsCursor   *entity.LogsCursor

	headBlockMetric      prometheus.Gauge
	processedBlockMetric prometheus.Gauge
	signedMetric         prometheus.Counter
	skippedMetric        prometheus.Counter
}

func NewWatcher(ctx context.Context, logger logging.Logger, repo *repository.Repo, bridgeCfg *config.BridgeConfig, cfg *config.BridgeSideConfig, client ethclient.Client, signer message.Signer) (*Watcher, error) {
	_, counterparty, err := bridgeCfg.Side(cfg.Chain.ChainID)
	if err != nil {
		return nil, err
	}
	if client.ChainID() != cfg.Chain.ChainID {
		return nil, fmt.Errorf("client for chain %s can't serve chain %s: %w", client.ChainID(), cfg.Chain.ChainID, ethclient.ErrIncompatibleChainID)
	}
	logger = logger.WithFields(logrus.Fields{
		"chain_id": cfg.Chain.ChainID,
		"address":  cfg.Address,
	})
	logsCursor, err := repo.LogsCursors.GetByChainIDAndAddress(ctx, cfg.Chain.ChainID, cfg.Address)
	if errors.Is(err, db.ErrNotFound) {
		logger.WithField("start_block", cfg.StartBlock).Warn("contract cursor is not present, starting indexing from scratch")
		logsCursor = &entity.LogsCursor{
			ChainID: cfg.Chain.ChainID,
			Address: cfg.Address,
		}
		if cfg.StartBlock > 0 {
			logsCursor.LastFetchedBlock = cfg.StartBlock - 1
			logsCursor.LastProcessedBlock = cfg.StartBlock - 1
		}
	} else if err != nil {
		return nil, fmt.Errorf("can't read logs cursor: %w", err)
	}
	commonLabels := prometheus.Labels{
		"bridge_id": bridgeCfg.ID,
		"chain_id":  cfg.Chain.ChainID,
		"address":   cfg.Address.String(),
	}
	return &Watcher{
		bridgeID:             bridgeCfg.ID,
		cfg:                  cfg,
		counterparty:         counterparty,
		logger:               logger,
		repo:                 repo,
		client:               client,
		contract:             contract.NewBridgeContract(client, cfg.Address),
		signer:               signer,
		logsCursor:           logsCursor,
		headBlockMetric:      LatestHeadBlock.With(commonLabels),
		processedBlockMetric: LatestProcessedBlock.With(commonLabels),
		signedMetric:         AttestationsTotal.WithLabelValues(bridgeCfg.ID, cfg.Chain.ChainID, statusSigned),
		skippedMetric:        AttestationsTotal.WithLabelValues(bridgeCfg.ID, cfg.Chain.ChainID, statusSkipped),
	}, nil
}

func (w *Watcher) Contract() *contract.BridgeContract {
	return w.contract
}

// Run attests new swaps until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.WithField("last_processed_block", w.logsCursor.LastProcessedBlock).Info("starting swaps watcher")
	for {
		head, err := w.client.BlockNumber(ctx)
		if err != nil {
			w.logger.WithError(err).Error("can't fetch latest block number")
		} else if head >= w.cfg.BlockConfirmations {
			head -= w.cfg.BlockConfirmations
			w.headBlockMetric.Set(float64(head))
			for _, blocksRange := range SplitBlockRange(w.logsCursor.LastProcessedBlock+1, head, w.cfg.MaxBlockRangeSize) {
				if !w.processWithRetry(ctx, blocksRange) {
					return
				}
			}
		}

		if !utils.ContextSleep(ctx, w.cfg.Chain.BlockIndexInterval) {
			return
		}
	}
}

func (w *Watcher) processWithRetry(ctx context.Context, blocksRange *BlocksRange) bool {
	for {
		err := w.ProcessBlockRange(ctx, blocksRange.From, blocksRange.To)
		if err == nil {
			return true
		}
		w.logger.WithError(err).WithFields(logrus.Fields{
			"from_block": blocksRange.From,
			"to_block":   blocksRange.To,
		}).Error("failed to process block range, retrying")
		if !utils.ContextSleep(ctx, retryInterval) {
			return false
		}
	}
}

// ProcessBlockRange fetches swap logs in the given range, attests them and
// moves the cursor past toBlock, all in one transaction.
func (w *Watcher) ProcessBlockRange(ctx context.Context, fromBlock, toBlock uint) error {
	logs, err := w.fetchLogs(ctx, fromBlock, toBlock)
	if err != nil {
		return err
	}
	w.logger.WithFields(logrus.Fields{
		"count":      len(logs),
		"from_block": fromBlock,
		"to_block":   toBlock,
	}).Info("fetched swap logs in range")

	cursor := *w.logsCursor
	err = w.repo.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		if len(logs) > 0 {
			if err := w.repo.Logs.Ensure(ctx, logs...); err != nil {
				return fmt.Errorf("can't save logs: %w", err)
			}
		}
		for _, log := range logs {
			if err := w.handleLog(ctx, log); err != nil {
				return err
			}
		}
		if toBlock > cursor.LastProcessedBlock {
			cursor.LastFetchedBlock = toBlock
			cursor.LastProcessedBlock = toBlock
		}
		return w.repo.LogsCursors.Ensure(ctx, &cursor)
	})
	if err != nil {
		return err
	}
	w.logsCursor = &cursor
	w.processedBlockMetric.Set(float64(cursor.LastProcessedBlock))
	return nil
}

func (w *Watcher) fetchLogs(ctx context.Context, fromBlock, toBlock uint) ([]*entity.Log, error) {
	q := ethereum.FilterQuery{
		FromBlock: big.NewInt(int64(fromBlock)),
		ToBlock:   big.NewInt(int64(toBlock)),
		Addresses: []common.Address{w.cfg.Address},
		Topics:    [][]common.Hash{{bridgeabi.SwapInitializedEventSignature}},
	}
	var rawLogs []types.Log
	var err error
	if w.cfg.Chain.SafeLogsRequest {
		rawLogs, err = w.client.FilterLogsSafe(ctx, q)
	} else {
		rawLogs, err = w.client.FilterLogs(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("can't fetch logs: %w", err)
	}
	logs := make([]*entity.Log, 0, len(rawLogs))
	for _, log := range rawLogs {
		if log.Removed {
			continue
		}
		logs = append(logs, entity.NewLog(w.cfg.Chain.ChainID, log))
	}
	sort.Slice(logs, func(i, j int) bool {
		a, b := logs[i], logs[j]
		return a.BlockNumber < b.BlockNumber || (a.BlockNumber == b.BlockNumber && a.LogIndex < b.LogIndex)
	})
	return logs, nil
}

func (w *Watcher) handleLog(ctx context.Context, log *entity.Log) error {
	logger := w.logger.WithFields(logrus.Fields{
		"log_id":       log.ID,
		"block_number": log.BlockNumber,
		"tx_hash":      log.TransactionHash,
		"log_index":    log.LogIndex,
	})
	event, rec, err := w.contract.ParseSwapRecord(log)
	if err != nil {
		return fmt.Errorf("can't parse log: %w", err)
	}
	if event != bridgeabi.SwapInitialized {
		logger.WithField("event", event).Warn("received unexpected event")
		return nil
	}
	logger = logger.WithFields(logrus.Fields{
		"sender":          rec.Sender,
		"recipient":       rec.Recipient,
		"source_chain_id": rec.SourceChainID,
		"dest_chain_id":   rec.DestChainID,
		"amount":          rec.Amount,
		"nonce":           rec.Nonce,
	})
	if rec.SourceChainID.String() != w.cfg.Chain.ChainID || rec.DestChainID.String() != w.counterparty.Chain.ChainID {
		w.skippedMetric.Inc()
		logger.Warn("swap is not directed to the bridge counterparty, skipping")
		return nil
	}
	if rec.Amount.Sign() == 0 {
		w.skippedMetric.Inc()
		logger.Warn("zero amount swap can't be redeemed, skipping")
		return nil
	}

	hash, sig, err := message.SignRecord(w.signer, rec)
	if err != nil {
		return fmt.Errorf("can't sign swap: %w", err)
	}
	logger = logger.WithField("msg_hash", hash)

	existing, err := w.repo.Attestations.FindByNonce(ctx, w.bridgeID, w.counterparty.Chain.ChainID, entity.NewNumeric(rec.Nonce))
	if err != nil {
		return fmt.Errorf("can't find attestations by nonce: %w", err)
	}
	for _, a := range existing {
		if a.MsgHash != hash {
			logger.WithField("other_msg_hash", a.MsgHash).Warn("nonce is already used by another swap, only one of them can be redeemed")
		}
	}

	err = w.repo.Attestations.Ensure(ctx, entity.NewAttestation(w.bridgeID, log.ID, rec, hash, w.signer.Address(), sig.Bytes()))
	if err != nil {
		return fmt.Errorf("can't save attestation: %w", err)
	}
	w.signedMetric.Inc()
	logger.Info("attested swap")
	return nil
}

// CheckValidator warns when the redeeming contract does not trust the signer.
func (w *Watcher) CheckValidator(ctx context.Context, dest *contract.BridgeContract) error {
	validator, err := dest.Validator(ctx)
	if err != nil {
		return err
	}
	logger := w.logger.WithFields(logrus.Fields{
		"validator": validator,
		"signer":    w.signer.Address(),
	})
	if validator != w.signer.Address() {
		logger.Warn("counterparty contract expects another validator, attestations will not be redeemable")
	} else {
		logger.Info("signer matches counterparty validator")
	}
	return nil
}
