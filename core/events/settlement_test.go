package events

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSwapRecord(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	evt := Swap{Owner: owner, Side: "BUY", MoneyMarket: "usdc", ANA: "1.000000", Cost: "2.000000"}.Event()
	if evt.Type != TypeSwap {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if evt.Attributes["owner"] != owner.Hex() || evt.Attributes["side"] != "buy" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
}

func TestStakeRecordNormalizesAsset(t *testing.T) {
	evt := Stake{Asset: " alms ", Action: "stake", Amount: "1"}.Event()
	if evt.Attributes["asset"] != "ALMS" {
		t.Fatalf("unexpected asset: %s", evt.Attributes["asset"])
	}
	if evt.Attributes["owner"] != "" {
		t.Fatalf("zero owner should be blank: %s", evt.Attributes["owner"])
	}
}

func TestCollectorAndMulti(t *testing.T) {
	var a, b Collector
	Multi{&a, nil, &b, NoopEmitter{}}.Emit(BootstrapStarted{StartTime: 1, EndTime: 2})
	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("fan out: %d %d", len(a.Events), len(b.Events))
	}
	rec, ok := a.Events[0].(Recordable)
	if !ok {
		t.Fatalf("event not recordable")
	}
	if rec.Event().Attributes["endTime"] != "2" {
		t.Fatalf("unexpected attrs: %+v", rec.Event().Attributes)
	}
}
