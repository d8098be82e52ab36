package accumulate

import (
	"testing"

	"github.com/colmnet/jamcore/internal/hostcall"
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

func newTestState() *jamstate.JamState {
	svc := jamstate.NewServiceAccount(jamstate.OpaqueHash{0xaa})
	svc.Balance = 1_000_000
	// a program with a single trap instruction: jtLen=0, width=1, codeLen=1
	img := []byte{0, 0, 0, 0, 1, 1, 0, 0, 0, byte(0x00), 0x01}
	svc.Preimages[svc.CodeHash] = img

	return &jamstate.JamState{
		Services:    jamstate.Services{1: svc},
		Privileges:  jamstate.Privileges{AlwaysAccumulate: map[jamstate.ServiceId]jamstate.Gas{}},
		Entropy:     jamstate.EntropyBuffer{},
		Accumulated: make(jamstate.AccumulatedReports, 4),
		Ready: jamstate.ReportsReady{
			{
				{
					Report: jamstate.WorkReport{
						PackageHash: jamstate.WorkPackageHash{0x01},
						Results: []jamstate.WorkResult{
							{ServiceId: 1, AccumulateGas: 1000},
						},
					},
				},
			},
		},
	}
}

func TestRunProcessesReadyReportsInOrder(t *testing.T) {
	pre := newTestState()
	a := New(params.Tiny, xcrypto.Default())

	res, err := a.Run(pre)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.State == pre {
		t.Fatal("Run must not mutate pre in place")
	}
	if len(res.State.Accumulated[0]) != 1 {
		t.Fatalf("expected one accumulated report, got %d", len(res.State.Accumulated[0]))
	}
}

func TestRunEmptyReadyQueueIsNoop(t *testing.T) {
	pre := newTestState()
	pre.Ready = nil
	a := New(params.Tiny, xcrypto.Default())

	res, err := a.Run(pre)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.State.Services) != len(pre.Services) {
		t.Fatal("service set should be unchanged with nothing ready")
	}
}

func TestApplyTransfersCreditsDestination(t *testing.T) {
	dst := jamstate.NewServiceAccount(jamstate.OpaqueHash{})
	dst.Balance = 100
	services := jamstate.Services{2: dst}

	applyTransfers(services, []hostcall.Transfer{{From: 1, To: 2, Amount: 50}})

	if services[2].Balance != 150 {
		t.Fatalf("expected balance 150, got %d", services[2].Balance)
	}
}

func TestSortReadyOrdersByServiceThenHash(t *testing.T) {
	entries := []readyEntry{
		{Report: jamstate.WorkReport{PackageHash: jamstate.WorkPackageHash{0x02}, Results: []jamstate.WorkResult{{ServiceId: 5}}}},
		{Report: jamstate.WorkReport{PackageHash: jamstate.WorkPackageHash{0x01}, Results: []jamstate.WorkResult{{ServiceId: 2}}}},
	}
	sortReady(entries)
	if primaryService(entries[0].Report) != 2 {
		t.Fatalf("expected service 2 first, got %d", primaryService(entries[0].Report))
	}
}
