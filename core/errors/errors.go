package errors

import stderrors "errors"

var (
	ErrNotInitialized          = stderrors.New("center: not initialized")
	ErrAlreadyInitialized      = stderrors.New("center: already initialized")
	ErrUnauthorized            = stderrors.New("center: caller is not the policy owner")
	ErrInvalidAmount           = stderrors.New("center: amount must be positive")
	ErrSlippageExceededForBuy  = stderrors.New("center: slippage exceeded for buy")
	ErrSlippageExceededForSell = stderrors.New("center: slippage exceeded for sell")
	ErrMoneyMarketNotFound     = stderrors.New("center: money market not found")
	ErrMoneyMarketNotEnabled   = stderrors.New("center: money market not enabled")
	ErrBondNotFound            = stderrors.New("center: bond not found")
	ErrRewardTooSoon           = stderrors.New("center: reward interval not elapsed")
	ErrInsufficientStake       = stderrors.New("center: insufficient stake")
	ErrBootstrapNotConfigured  = stderrors.New("center: bootstrap not configured")
	ErrNothingToClaim          = stderrors.New("center: nothing to claim")
	ErrInsufficientTreasury    = stderrors.New("center: insufficient treasury balance")
	ErrInvalidGenesis          = stderrors.New("center: invalid genesis")
	ErrInconsistentReceipt     = stderrors.New("center: receipt would drive a balance negative")
	ErrFloorPriceLowered       = stderrors.New("center: floor price may not be lowered")
)
