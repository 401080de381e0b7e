package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"nirvana/core/center"
	centererrors "nirvana/core/errors"
	"nirvana/native/bond"
	"nirvana/native/curve"
	"nirvana/native/fixedpoint"
)

// receiptRecorder persists committed receipts.
type receiptRecorder interface {
	RecordReceipt(ctx context.Context, receipt *center.Receipt) error
}

// daemon serializes every engine call. The cron crank and the quote API
// share one engine and the engine itself holds no lock.
type daemon struct {
	mu       sync.Mutex
	engine   *center.Engine
	recorder receiptRecorder
	logger   *slog.Logger
}

func newDaemon(engine *center.Engine, recorder receiptRecorder, logger *slog.Logger) *daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &daemon{engine: engine, recorder: recorder, logger: logger}
}

// initialize writes the genesis unless a config is already stored.
func (d *daemon) initialize(genesis center.Genesis) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.engine.Initialize(genesis.Config.PolicyOwner, genesis)
	if errors.Is(err, centererrors.ErrAlreadyInitialized) {
		d.logger.Info("center already initialized; genesis ignored")
		return nil
	}
	return err
}

// crank drops the reward for the elapsed interval. It is a no-op until the
// interval has passed.
func (d *daemon) crank(ctx context.Context) {
	ctx, span := otel.Tracer("nirvana/cmd/nirvd").Start(ctx, "reward.crank")
	defer span.End()

	d.mu.Lock()
	receipt, err := d.engine.RewardByTime(center.Call{})
	d.mu.Unlock()
	switch {
	case errors.Is(err, centererrors.ErrRewardTooSoon):
		span.SetAttributes(attribute.Bool("skipped", true))
		d.logger.Debug("reward crank skipped", slog.String("reason", err.Error()))
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "reward crank failed")
		d.logger.Error("reward crank failed", slog.Any("error", err))
		return
	}
	span.SetAttributes(attribute.String("receipt", receipt.ID))
	d.record(ctx, receipt)
}

func (d *daemon) record(ctx context.Context, receipt *center.Receipt) {
	if d.recorder == nil || receipt == nil {
		return
	}
	if err := d.recorder.RecordReceipt(ctx, receipt); err != nil {
		d.logger.Error("journal write failed",
			slog.String("receipt", receipt.ID),
			slog.String("op", receipt.Op),
			slog.Any("error", err))
	}
}

func (d *daemon) Snapshot() (*center.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.Snapshot()
}

func (d *daemon) QuoteSwap(moneyMarket string, side curve.Side, amount fixedpoint.ANA, now uint64) (center.SwapQuote, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.QuoteSwap(moneyMarket, side, amount, now)
}

func (d *daemon) QuoteBond(moneyMarket string) (center.BondQuote, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.QuoteBond(moneyMarket)
}

func (d *daemon) QueryPosition(owner common.Address) (center.Position, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.QueryPosition(owner)
}

func (d *daemon) PendingBond(moneyMarket string, owner common.Address, slot uint32, now uint64) (*bond.Contract, fixedpoint.ANA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine.PendingBond(moneyMarket, owner, slot, now)
}
