package quoteapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nirvana/core/center"
	centererrors "nirvana/core/errors"
	"nirvana/native/bond"
	"nirvana/native/curve"
	"nirvana/native/fixedpoint"
	"nirvana/services/journal"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadSide     = errors.New("side must be buy or sell")
	errBadAddress  = errors.New("owner must be a hex address")
)

// Reader is the read-only engine surface the API serves.
type Reader interface {
	Snapshot() (*center.Snapshot, error)
	QuoteSwap(moneyMarket string, side curve.Side, amount fixedpoint.ANA, now uint64) (center.SwapQuote, error)
	QuoteBond(moneyMarket string) (center.BondQuote, error)
	QueryPosition(owner common.Address) (center.Position, error)
	PendingBond(moneyMarket string, owner common.Address, slot uint32, now uint64) (*bond.Contract, fixedpoint.ANA, error)
}

// Receipts reads the settlement journal.
type Receipts interface {
	Receipt(ctx context.Context, id string) (*journal.Entry, error)
	Recent(ctx context.Context, owner string, limit int) ([]*journal.Entry, error)
}

type Config struct {
	Reader      Reader
	Receipts    Receipts
	RateLimiter *RateLimiter
	Logger      *slog.Logger
	Now         func() time.Time
	// Tracing wraps the router in an OpenTelemetry handler using the
	// global tracer provider.
	Tracing bool
}

// Server serves quotes and positions over HTTP.
type Server struct {
	reader   Reader
	receipts Receipts
	logger   *slog.Logger
	now      func() time.Time
}

// New builds the router. Receipts and the rate limiter are optional.
func New(cfg Config) (http.Handler, error) {
	if cfg.Reader == nil {
		return nil, errors.New("quoteapi: reader required")
	}
	s := &Server{reader: cfg.Reader, receipts: cfg.Receipts, logger: cfg.Logger, now: cfg.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware)
		}
		sr.Get("/snapshot", s.handleSnapshot)
		sr.Get("/quote/swap", s.handleSwapQuote)
		sr.Get("/quote/bond/{market}", s.handleBondQuote)
		sr.Get("/positions/{owner}", s.handlePosition)
		sr.Get("/bonds/{market}/{owner}/{slot}", s.handleBond)
		if s.receipts != nil {
			sr.Get("/receipts", s.handleReceipts)
			sr.Get("/receipts/{id}", s.handleReceipt)
		}
	})
	if cfg.Tracing {
		return otelhttp.NewHandler(r, "quoteapi"), nil
	}
	return r, nil
}

type snapshotResponse struct {
	PolicyOwner      string            `json:"policyOwner"`
	Price            string            `json:"price"`
	CurrentPrice     string            `json:"currentPrice"`
	FloorPrice       string            `json:"floorPrice"`
	SupplyANA        string            `json:"supplyANA"`
	StakedANA        string            `json:"stakedANA"`
	StakedALMS       string            `json:"stakedALMS"`
	RewardRate       string            `json:"rewardRate"`
	RewardIndex      string            `json:"rewardIndex"`
	LastRewardTime   uint64            `json:"lastRewardTime"`
	FeeIndices       map[string]string `json:"feeIndices"`
	BootstrapStart   uint64            `json:"bootstrapStart"`
	BootstrapEnd     uint64            `json:"bootstrapEnd"`
	CommitmentMarket string            `json:"commitmentMarket,omitempty"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.reader.Snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cfg := snap.Config
	writeJSON(w, http.StatusOK, snapshotResponse{
		PolicyOwner:    cfg.PolicyOwner.Hex(),
		Price:          snap.Price.StringFixed(fixedpoint.PreciseScale),
		CurrentPrice:   cfg.CurrentPrice.String(),
		FloorPrice:     snap.PriceField.FloorPrice.String(),
		SupplyANA:      snap.SupplyANA.String(),
		StakedANA:      snap.StakedANA.String(),
		StakedALMS:     snap.StakedALMS.String(),
		RewardRate:     cfg.RewardRate.String(),
		RewardIndex:    cfg.RewardIndex.String(),
		LastRewardTime: cfg.LastRewardTime,
		FeeIndices: map[string]string{
			"ana":   cfg.FeeIndices.ANA.String(),
			"nirv":  cfg.FeeIndices.NIRV.String(),
			"prana": cfg.FeeIndices.PrANA.String(),
		},
		BootstrapStart:   cfg.Bootstrap.StartTime,
		BootstrapEnd:     cfg.Bootstrap.EndTime(),
		CommitmentMarket: cfg.CommitmentMarket,
	})
}

type swapQuoteResponse struct {
	MoneyMarket string `json:"moneyMarket"`
	Side        string `json:"side"`
	Amount      string `json:"amount"`
	Fee         string `json:"fee"`
	Settled     string `json:"settled"`
	Cost        string `json:"cost"`
	Offset      string `json:"offset"`
}

func (s *Server) handleSwapQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var side curve.Side
	switch strings.ToLower(strings.TrimSpace(q.Get("side"))) {
	case "buy", "":
		side = curve.Buy
	case "sell":
		side = curve.Sell
	default:
		writeError(w, http.StatusBadRequest, errBadSide)
		return
	}
	amount, err := fixedpoint.Parse[fixedpoint.ANA](strings.TrimSpace(q.Get("amount")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	market := q.Get("market")
	quote, err := s.reader.QuoteSwap(market, side, amount, uint64(s.now().Unix()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, swapQuoteResponse{
		MoneyMarket: strings.ToLower(strings.TrimSpace(market)),
		Side:        side.String(),
		Amount:      amount.String(),
		Fee:         quote.Fee.String(),
		Settled:     quote.Settled.String(),
		Cost:        quote.Cost.String(),
		Offset:      quote.Offset.String(),
	})
}

type bondQuoteResponse struct {
	MoneyMarket    string `json:"moneyMarket"`
	Enabled        bool   `json:"enabled"`
	Discount       string `json:"discount"`
	Price          string `json:"price"`
	Outstanding    string `json:"outstanding"`
	TotalBought    string `json:"totalBought"`
	VestingSeconds uint64 `json:"vestingSeconds"`
}

func (s *Server) handleBondQuote(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	quote, err := s.reader.QuoteBond(market)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bondQuoteResponse{
		MoneyMarket:    market,
		Enabled:        quote.Meta.Enabled,
		Discount:       quote.Discount.StringFixed(fixedpoint.PreciseScale),
		Price:          quote.Price.StringFixed(fixedpoint.PreciseScale),
		Outstanding:    quote.Meta.Outstanding.String(),
		TotalBought:    quote.Meta.TotalBought.String(),
		VestingSeconds: quote.Meta.VestingSeconds,
	})
}

type positionResponse struct {
	Owner         string `json:"owner"`
	Staked        string `json:"staked"`
	Borrowed      string `json:"borrowed"`
	BorrowLimit   string `json:"borrowLimit"`
	PendingReward string `json:"pendingReward"`
	PendingFee    string `json:"pendingFee"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	pos, err := s.reader.QueryPosition(owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{
		Owner:         owner.Hex(),
		Staked:        pos.Staked.String(),
		Borrowed:      pos.Borrowed.String(),
		BorrowLimit:   pos.BorrowLimit.String(),
		PendingReward: pos.PendingReward.String(),
		PendingFee:    pos.PendingFee.String(),
	})
}

type bondResponse struct {
	Available  bool   `json:"available"`
	Amount     string `json:"amount"`
	Redeemed   string `json:"redeemed"`
	Price      string `json:"price"`
	StartTime  uint64 `json:"startTime"`
	EndTime    uint64 `json:"endTime"`
	Redeemable string `json:"redeemable"`
}

func (s *Server) handleBond(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	slot, err := strconv.ParseUint(chi.URLParam(r, "slot"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	contract, left, err := s.reader.PendingBond(chi.URLParam(r, "market"), owner, uint32(slot), uint64(s.now().Unix()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bondResponse{
		Available:  contract.Available,
		Amount:     contract.Amount.String(),
		Redeemed:   contract.Redeemed.String(),
		Price:      contract.PriceInUnderlying.String(),
		StartTime:  contract.StartTime,
		EndTime:    contract.EndTime,
		Redeemable: left.String(),
	})
}

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 500 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be between 0 and 500"))
			return
		}
		limit = n
	}
	owner := strings.TrimSpace(q.Get("owner"))
	if owner != "" {
		if !common.IsHexAddress(owner) {
			writeError(w, http.StatusBadRequest, errBadAddress)
			return
		}
		owner = common.HexToAddress(owner).Hex()
	}
	entries, err := s.receipts.Recent(r.Context(), owner, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	entry, err := s.receipts.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func ownerParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := chi.URLParam(r, "owner")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, errBadAddress)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// fail maps engine errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, centererrors.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	case errors.Is(err, centererrors.ErrMoneyMarketNotFound),
		errors.Is(err, centererrors.ErrBondNotFound),
		errors.Is(err, journal.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, centererrors.ErrMoneyMarketNotEnabled),
		errors.Is(err, centererrors.ErrInvalidAmount),
		errors.Is(err, curve.ErrInsufficientSupply):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("quote request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
