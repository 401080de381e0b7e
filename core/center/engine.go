package center

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	centererrors "nirvana/core/errors"
	"nirvana/core/events"
	"nirvana/native/bond"
	"nirvana/native/commitment"
	"nirvana/native/curve"
	nativecommon "nirvana/native/common"
	"nirvana/native/fixedpoint"
	"nirvana/native/history"
	"nirvana/native/rewards"
	"nirvana/observability/metrics"
)

var errNilState = errors.New("center engine: state not configured")

// engineState is the persistence boundary. Getters return nil records
// without error when nothing is stored yet.
type engineState interface {
	Config() (*Config, error)
	PriceField() (*curve.PriceField, error)
	MoneyMarket(id string) (*MoneyMarket, error)
	BondMeta(id string) (*bond.Meta, error)
	BondContract(key BondKey) (*bond.Contract, error)
	StakeRecord(owner common.Address) (*rewards.StakeRecord, error)
	FeeCollector(owner common.Address) (*rewards.FeeCollector, error)
	Commitment(owner common.Address) (*commitment.Commitment, error)
	CommitmentMeta() (*commitment.Meta, error)
	History(owner common.Address) (*history.Personal, error)
	GlobalHistory() (*history.Global, error)
	Supply(asset Asset) (uint64, error)
	Balance(account Account, asset Asset) (uint64, error)
	// Commit writes the update and applies the receipt atomically.
	Commit(update *Update, receipt *Receipt) error
}

// Call carries the caller of an operation. ClockOverride replaces the wall
// clock when non-zero and is only honoured for the policy owner.
type Call struct {
	Caller        common.Address
	ClockOverride uint64
}

// Engine applies center operations against the configured state.
type Engine struct {
	state   engineState
	pauses  nativecommon.PauseView
	nowFn   func() time.Time
	logger  *slog.Logger
	emitter events.Emitter
	metrics *metrics.SettlementMetrics
}

// NewEngine returns an engine with a wall clock, the default logger and no
// event subscribers.
func NewEngine() *Engine {
	return &Engine{
		nowFn:   time.Now,
		logger:  slog.Default(),
		emitter: events.NoopEmitter{},
	}
}

// SetState wires the engine to the persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetNowFunc overrides the wall clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if e == nil || now == nil {
		return
	}
	e.nowFn = now
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// SetEmitter configures the sink for committed events.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) SetMetrics(m *metrics.SettlementMetrics) {
	if e == nil {
		return
	}
	e.metrics = m
}

// Initialize writes the genesis records. It fails when a config is already
// stored.
func (e *Engine) Initialize(owner common.Address, genesis Genesis) (err error) {
	defer func() { e.observe(opInitialize, err) }()
	if e == nil || e.state == nil {
		return errNilState
	}
	existing, err := e.state.Config()
	if err != nil {
		return err
	}
	if existing != nil {
		return centererrors.ErrAlreadyInitialized
	}
	if err := validateGenesis(&genesis); err != nil {
		return err
	}
	cfg := genesis.Config
	cfg.PolicyOwner = owner
	field := genesis.PriceField

	supply, err := e.state.Supply(AssetANA)
	if err != nil {
		return err
	}
	price, err := fixedpoint.FromDecimal[fixedpoint.Precise](field.PriceForSupply(fixedpoint.ANA(supply)), fixedpoint.TowardZero)
	if err != nil {
		return err
	}
	cfg.CurrentPrice = price

	update := &Update{
		Owner:          owner,
		Config:         &cfg,
		PriceField:     &field,
		BondMetas:      make(map[string]*bond.Meta, len(genesis.Bonds)),
		CommitmentMeta: genesis.CommitmentMeta.Clone(),
		GlobalHistory:  &history.Global{},
	}
	for i := range genesis.MoneyMarkets {
		update.MoneyMarkets = append(update.MoneyMarkets, genesis.MoneyMarkets[i].Clone())
	}
	for i := range genesis.Bonds {
		update.BondMetas[normalizeID(genesis.Bonds[i].ID)] = genesis.Bonds[i].Meta.Clone()
	}
	if err := e.state.Commit(update, nil); err != nil {
		return err
	}
	e.log().Info("center initialized",
		slog.String("owner", owner.Hex()),
		slog.Int("money_markets", len(genesis.MoneyMarkets)),
		slog.Int("bonds", len(genesis.Bonds)))
	return nil
}

func validateGenesis(g *Genesis) error {
	if err := g.PriceField.Validate(); err != nil {
		return errors.Join(centererrors.ErrInvalidGenesis, err)
	}
	if err := g.Config.Fees.Validate(); err != nil {
		return errors.Join(centererrors.ErrInvalidGenesis, err)
	}
	seen := make(map[string]struct{}, len(g.MoneyMarkets))
	for i := range g.MoneyMarkets {
		id := normalizeID(g.MoneyMarkets[i].ID)
		if id == "" {
			return errors.Join(centererrors.ErrInvalidGenesis, errors.New("money market id required"))
		}
		if _, dup := seen[id]; dup {
			return errors.Join(centererrors.ErrInvalidGenesis, errors.New("duplicate money market "+id))
		}
		seen[id] = struct{}{}
		g.MoneyMarkets[i].ID = id
	}
	for i := range g.Bonds {
		if _, ok := seen[normalizeID(g.Bonds[i].ID)]; !ok {
			return errors.Join(centererrors.ErrInvalidGenesis, errors.New("bond without money market "+g.Bonds[i].ID))
		}
	}
	if m := strings.TrimSpace(g.Config.CommitmentMarket); m != "" {
		if _, ok := seen[normalizeID(m)]; !ok {
			return errors.Join(centererrors.ErrInvalidGenesis, errors.New("unknown commitment market "+m))
		}
		g.Config.CommitmentMarket = normalizeID(m)
	}
	return nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// begin runs the checks shared by every operation and returns a clone of
// the config together with the effective time.
func (e *Engine) begin(module string, call Call) (*Config, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, errNilState
	}
	if err := nativecommon.Guard(e.pauses, module); err != nil {
		return nil, 0, err
	}
	cfg, err := e.state.Config()
	if err != nil {
		return nil, 0, err
	}
	if cfg == nil {
		return nil, 0, centererrors.ErrNotInitialized
	}
	cfg = cfg.Clone()
	clock := e.nowFn
	if clock == nil {
		clock = time.Now
	}
	now := uint64(clock().Unix())
	if call.ClockOverride != 0 {
		if call.Caller != cfg.PolicyOwner {
			return nil, 0, centererrors.ErrUnauthorized
		}
		now = call.ClockOverride
	}
	return cfg, now, nil
}

func (e *Engine) priceField() (*curve.PriceField, error) {
	field, err := e.state.PriceField()
	if err != nil {
		return nil, err
	}
	if field == nil {
		return nil, centererrors.ErrNotInitialized
	}
	return field.Clone(), nil
}

// moneyMarket loads an enabled money market that allows the use.
func (e *Engine) moneyMarket(id string, allowed func(*MoneyMarket) bool) (*MoneyMarket, error) {
	mm, err := e.state.MoneyMarket(normalizeID(id))
	if err != nil {
		return nil, err
	}
	if mm == nil {
		return nil, centererrors.ErrMoneyMarketNotFound
	}
	if !mm.Enabled || !allowed(mm) {
		return nil, centererrors.ErrMoneyMarketNotEnabled
	}
	return mm.Clone(), nil
}

func (e *Engine) supplyANA() (fixedpoint.ANA, error) {
	v, err := e.state.Supply(AssetANA)
	return fixedpoint.ANA(v), err
}

func (e *Engine) stakedALMS() (fixedpoint.ALMS, error) {
	v, err := e.state.Balance(AccountStakePoolALMS, AssetALMS)
	return fixedpoint.ALMS(v), err
}

func (e *Engine) stakedANA() (fixedpoint.ANA, error) {
	v, err := e.state.Balance(AccountStakePoolANA, AssetANA)
	return fixedpoint.ANA(v), err
}

func (e *Engine) stakeRecord(owner common.Address) (*rewards.StakeRecord, error) {
	rec, err := e.state.StakeRecord(owner)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &rewards.StakeRecord{}, nil
	}
	return rec.Clone(), nil
}

func (e *Engine) personalHistory(owner common.Address) (*history.Personal, error) {
	h, err := e.state.History(owner)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return &history.Personal{}, nil
	}
	return h.Clone(), nil
}

func (e *Engine) globalHistory() (*history.Global, error) {
	g, err := e.state.GlobalHistory()
	if err != nil {
		return nil, err
	}
	if g == nil {
		return &history.Global{}, nil
	}
	return g.Clone(), nil
}

func (e *Engine) feeCollector(owner common.Address) (*rewards.FeeCollector, error) {
	c, err := e.state.FeeCollector(owner)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &rewards.FeeCollector{}, nil
	}
	return c.Clone(), nil
}

func newReceipt(op string, owner common.Address, now uint64) *Receipt {
	return &Receipt{
		ID:    uuid.NewString(),
		Op:    op,
		Owner: owner,
		Time:  now,
	}
}

// commit persists the update and publishes the events once the write has
// succeeded.
func (e *Engine) commit(update *Update, receipt *Receipt, evts ...events.Event) error {
	if err := e.state.Commit(update, receipt); err != nil {
		return err
	}
	if e.emitter != nil {
		for _, evt := range evts {
			e.emitter.Emit(evt)
		}
	}
	if update.Config != nil {
		e.metrics.SetPrice(update.Config.CurrentPrice.Decimal().InexactFloat64())
		e.metrics.SetIndex("reward_ana", update.Config.RewardIndex.Decimal().InexactFloat64())
		e.metrics.SetIndex("fee_ana", update.Config.FeeIndices.ANA.Decimal().InexactFloat64())
		e.metrics.SetIndex("fee_nirv", update.Config.FeeIndices.NIRV.Decimal().InexactFloat64())
		e.metrics.SetIndex("fee_prana", update.Config.FeeIndices.PrANA.Decimal().InexactFloat64())
	}
	if receipt != nil {
		e.log().Info("center operation committed",
			slog.String("op", receipt.Op),
			slog.String("receipt", receipt.ID),
			slog.String("owner", receipt.Owner.Hex()),
			slog.Int("transfers", len(receipt.Transfers)))
	}
	return nil
}

func (e *Engine) fee(kind string, amount fixedpoint.Arbitrary) {
	if amount.IsZero() {
		return
	}
	e.metrics.AddFee(kind, amount.Decimal().InexactFloat64())
}

func (e *Engine) observe(op string, err error) {
	if e == nil {
		return
	}
	e.metrics.ObserveOperation(op, err)
	if err != nil {
		e.log().Debug("center operation rejected", slog.String("op", op), slog.Any("error", err))
	}
}

const (
	opInitialize     = "initialize"
	opSwap           = "swap"
	opPurchaseBond   = "purchase_bond"
	opRedeemBond     = "redeem_bond"
	opStakeANA       = "stake_ana"
	opUnstakeANA     = "unstake_ana"
	opBorrowNIRV     = "borrow_nirv"
	opRepayNIRV      = "repay_nirv"
	opClaimPrANA     = "claim_prana"
	opRewardByTime   = "reward_by_time"
	opRealizePrANA   = "realize_prana"
	opBuyback        = "buyback"
	opStakeALMS      = "stake_alms"
	opUnstakeALMS    = "unstake_alms"
	opClaimFees      = "claim_fees"
	opSetCommitment  = "set_commitment"
	opClaimLBP       = "claim_lbp"
	opStartBootstrap = "start_bootstrap"
	opAdmin          = "admin"
)

func (e *Engine) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}
