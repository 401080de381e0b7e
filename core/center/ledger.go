package center

import (
	centererrors "nirvana/core/errors"
)

// Book is the balance view a receipt is applied to: protocol token supplies
// and protocol account balances in base units.
type Book interface {
	Supply(asset Asset) (uint64, error)
	SetSupply(asset Asset, value uint64) error
	Balance(account Account, asset Asset) (uint64, error)
	SetBalance(account Account, asset Asset, value uint64) error
}

type balanceKey struct {
	account Account
	asset   Asset
}

// ApplyReceipt folds the receipt's transfers into the book. Participant
// balances live with the custody layer and are not tracked. Every value is
// read once and written once so a staged book sees a consistent result.
func ApplyReceipt(book Book, receipt *Receipt) error {
	if book == nil || receipt == nil {
		return nil
	}
	supplies := make(map[Asset]uint64)
	balances := make(map[balanceKey]uint64)
	var supplyOrder []Asset
	var balanceOrder []balanceKey

	supply := func(asset Asset) (uint64, error) {
		if v, ok := supplies[asset]; ok {
			return v, nil
		}
		v, err := book.Supply(asset)
		if err != nil {
			return 0, err
		}
		supplies[asset] = v
		supplyOrder = append(supplyOrder, asset)
		return v, nil
	}
	balance := func(key balanceKey) (uint64, error) {
		if v, ok := balances[key]; ok {
			return v, nil
		}
		v, err := book.Balance(key.account, key.asset)
		if err != nil {
			return 0, err
		}
		balances[key] = v
		balanceOrder = append(balanceOrder, key)
		return v, nil
	}
	credit := func(account Account, asset Asset, amount uint64) error {
		if !account.IsProtocol() {
			return nil
		}
		key := balanceKey{account: account, asset: asset}
		v, err := balance(key)
		if err != nil {
			return err
		}
		if v+amount < v {
			return centererrors.ErrInconsistentReceipt
		}
		balances[key] = v + amount
		return nil
	}
	debit := func(account Account, asset Asset, amount uint64) error {
		if !account.IsProtocol() {
			return nil
		}
		key := balanceKey{account: account, asset: asset}
		v, err := balance(key)
		if err != nil {
			return err
		}
		if amount > v {
			return centererrors.ErrInconsistentReceipt
		}
		balances[key] = v - amount
		return nil
	}

	for _, t := range receipt.Transfers {
		amount := t.Amount.Val
		switch t.Kind {
		case KindMint:
			if t.Asset.IsProtocolToken() {
				v, err := supply(t.Asset)
				if err != nil {
					return err
				}
				if v+amount < v {
					return centererrors.ErrInconsistentReceipt
				}
				supplies[t.Asset] = v + amount
			}
			if err := credit(t.To, t.Asset, amount); err != nil {
				return err
			}
		case KindBurn:
			if t.Asset.IsProtocolToken() {
				v, err := supply(t.Asset)
				if err != nil {
					return err
				}
				if amount > v {
					return centererrors.ErrInconsistentReceipt
				}
				supplies[t.Asset] = v - amount
			}
			if err := debit(t.From, t.Asset, amount); err != nil {
				return err
			}
		case KindTransfer:
			if err := debit(t.From, t.Asset, amount); err != nil {
				return err
			}
			if err := credit(t.To, t.Asset, amount); err != nil {
				return err
			}
		}
	}

	for _, asset := range supplyOrder {
		if err := book.SetSupply(asset, supplies[asset]); err != nil {
			return err
		}
	}
	for _, key := range balanceOrder {
		if err := book.SetBalance(key.account, key.asset, balances[key]); err != nil {
			return err
		}
	}
	return nil
}
