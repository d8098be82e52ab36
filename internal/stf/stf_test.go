package stf

import (
	"testing"

	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

func freshState() *jamstate.JamState {
	return &jamstate.JamState{
		Services:    jamstate.Services{},
		Pending:     make(jamstate.PendingReports, params.Tiny.CoreCount),
		Ready:       make(jamstate.ReportsReady, params.Tiny.EpochLength),
		Accumulated: make(jamstate.AccumulatedReports, params.Tiny.EpochLength),
		Stats: jamstate.ValidatorStats{
			Current: make([]jamstate.ValidatorActivityRecord, params.Tiny.ValidatorsCount),
		},
	}
}

func TestSafroleTransitionRejectsNonIncreasingSlot(t *testing.T) {
	pre := freshState()
	pre.Slot = 10
	crypto := xcrypto.Default()

	_, _, err := SafroleTransition(pre, SafroleInput{Slot: 10}, params.Tiny, crypto)
	if err != ErrBadSlot {
		t.Fatalf("expected ErrBadSlot, got %v", err)
	}
}

func TestSafroleTransitionAdvancesSlotAndEntropy(t *testing.T) {
	pre := freshState()
	pre.Slot = 1
	crypto := xcrypto.Default()

	post, _, err := SafroleTransition(pre, SafroleInput{Slot: 2, FreshEntropy: jamstate.Entropy{0x01}}, params.Tiny, crypto)
	if err != nil {
		t.Fatalf("SafroleTransition: %v", err)
	}
	if post.Slot != 2 {
		t.Fatalf("expected slot 2, got %d", post.Slot)
	}
	if post.Entropy[0] != (jamstate.Entropy{0x01}) {
		t.Fatalf("expected fresh entropy rolled in, got %x", post.Entropy[0])
	}
	if pre.Slot != 1 {
		t.Fatal("pre-state must be unmodified")
	}
}

func TestSafroleTransitionRejectsBadTicketAttempt(t *testing.T) {
	pre := freshState()
	crypto := xcrypto.Default()
	in := SafroleInput{
		Slot: 1,
		Tickets: []TicketExtrinsicEntry{
			{Attempt: uint8(params.Tiny.MaxTicketEntriesPerValidator)},
		},
	}
	_, _, err := SafroleTransition(pre, in, params.Tiny, crypto)
	if err != ErrBadTicketAttempt {
		t.Fatalf("expected ErrBadTicketAttempt, got %v", err)
	}
}

func TestDisputesTransitionClassifiesGoodBadWonky(t *testing.T) {
	pre := freshState()
	crypto := &xcrypto.Provider{}
	lookup := func(idx jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) {
		if int(idx) >= int(params.Tiny.ValidatorsCount) {
			return jamstate.Ed25519Public{}, false
		}
		return jamstate.Ed25519Public{byte(idx)}, true
	}

	var votes []Vote
	for i := jamstate.ValidatorIndex(0); i < jamstate.ValidatorIndex(params.Tiny.ValidatorsCount); i++ {
		votes = append(votes, Vote{ValidatorIndex: i, Valid: i < jamstate.ValidatorIndex(params.Tiny.ValidatorsSuperMajority)})
	}
	in := DisputesInput{
		Verdicts: []Verdict{{ReportHash: jamstate.WorkReportHash{0x01}, Votes: votes}},
	}
	post, _, err := DisputesTransition(pre, in, params.Tiny, crypto, lookup)
	if err != nil {
		t.Fatalf("DisputesTransition: %v", err)
	}
	if len(post.Disputes.Good) != 1 || post.Disputes.Good[0] != (jamstate.WorkReportHash{0x01}) {
		t.Fatalf("expected report classified good, got %+v", post.Disputes)
	}
}

func TestDisputesTransitionRejectsAlreadyJudged(t *testing.T) {
	pre := freshState()
	pre.Disputes.Good = []jamstate.WorkReportHash{{0x01}}
	crypto := xcrypto.Default()
	lookup := func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }

	in := DisputesInput{Verdicts: []Verdict{{ReportHash: jamstate.WorkReportHash{0x01}}}}
	_, _, err := DisputesTransition(pre, in, params.Tiny, crypto, lookup)
	if err != ErrAlreadyJudged {
		t.Fatalf("expected ErrAlreadyJudged, got %v", err)
	}
}

func TestReportsTransitionRejectsBadCoreIndex(t *testing.T) {
	pre := freshState()
	crypto := &xcrypto.Provider{}
	lookup := func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }
	in := ReportsInput{
		Guarantees: []GuaranteeEntry{
			{Report: jamstate.WorkReport{Core: jamstate.CoreIndex(len(pre.Pending) + 1)}},
		},
	}
	_, _, err := ReportsTransition(pre, in, params.Tiny, crypto, lookup)
	if err != ErrBadCoreIndex {
		t.Fatalf("expected ErrBadCoreIndex, got %v", err)
	}
}

func TestReportsTransitionAdmitsIntoPendingAndReady(t *testing.T) {
	pre := freshState()
	pre.History.Blocks = []jamstate.BlockInfo{{}}
	pre.AuthPools = []jamstate.AuthPool{{jamstate.OpaqueHash{}}}
	crypto := &xcrypto.Provider{Blake2b256: xcrypto.Blake2b256}
	lookup := func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }

	sigs := make([]ValidatorSignature, params.Tiny.ValidatorsSuperMajority)
	in := ReportsInput{
		Guarantees: []GuaranteeEntry{
			{
				Report:     jamstate.WorkReport{Core: 0, PackageHash: jamstate.WorkPackageHash{0x09}},
				Slot:       5,
				Signatures: sigs,
			},
		},
	}
	post, out, err := ReportsTransition(pre, in, params.Tiny, crypto, lookup)
	if err != nil {
		t.Fatalf("ReportsTransition: %v", err)
	}
	if post.Pending[0] == nil {
		t.Fatal("expected core 0 to have a pending assignment")
	}
	if len(out.Reported) != 1 {
		t.Fatalf("expected one reported hash, got %d", len(out.Reported))
	}
}

func TestReportsTransitionRejectsStaleAnchor(t *testing.T) {
	pre := freshState()
	pre.AuthPools = []jamstate.AuthPool{{jamstate.OpaqueHash{}}}
	crypto := &xcrypto.Provider{Blake2b256: xcrypto.Blake2b256}
	lookup := func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }

	sigs := make([]ValidatorSignature, params.Tiny.ValidatorsSuperMajority)
	in := ReportsInput{
		Guarantees: []GuaranteeEntry{
			{
				Report:     jamstate.WorkReport{Core: 0, PackageHash: jamstate.WorkPackageHash{0x09}},
				Slot:       5,
				Signatures: sigs,
			},
		},
	}
	_, _, err := ReportsTransition(pre, in, params.Tiny, crypto, lookup)
	if err != ErrAnchorNotRecent {
		t.Fatalf("expected ErrAnchorNotRecent, got %v", err)
	}
}

func TestReportsTransitionRejectsMissingAuthorization(t *testing.T) {
	pre := freshState()
	pre.History.Blocks = []jamstate.BlockInfo{{}}
	pre.AuthPools = []jamstate.AuthPool{{}}
	crypto := &xcrypto.Provider{Blake2b256: xcrypto.Blake2b256}
	lookup := func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }

	sigs := make([]ValidatorSignature, params.Tiny.ValidatorsSuperMajority)
	in := ReportsInput{
		Guarantees: []GuaranteeEntry{
			{
				Report:     jamstate.WorkReport{Core: 0, PackageHash: jamstate.WorkPackageHash{0x09}},
				Slot:       5,
				Signatures: sigs,
			},
		},
	}
	_, _, err := ReportsTransition(pre, in, params.Tiny, crypto, lookup)
	if err != ErrMissingAuthorization {
		t.Fatalf("expected ErrMissingAuthorization, got %v", err)
	}
}

func TestReportsTransitionRejectsGasOverflow(t *testing.T) {
	pre := freshState()
	pre.History.Blocks = []jamstate.BlockInfo{{}}
	pre.AuthPools = []jamstate.AuthPool{{jamstate.OpaqueHash{}}}
	crypto := &xcrypto.Provider{Blake2b256: xcrypto.Blake2b256}
	lookup := func(jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }

	sigs := make([]ValidatorSignature, params.Tiny.ValidatorsSuperMajority)
	in := ReportsInput{
		Guarantees: []GuaranteeEntry{
			{
				Report: jamstate.WorkReport{
					Core:        0,
					PackageHash: jamstate.WorkPackageHash{0x09},
					Results:     []jamstate.WorkResult{{AccumulateGas: jamstate.Gas(params.Tiny.MaxReportAccumulateGas + 1)}},
				},
				Slot:       5,
				Signatures: sigs,
			},
		},
	}
	_, _, err := ReportsTransition(pre, in, params.Tiny, crypto, lookup)
	if err != ErrGasOverflow {
		t.Fatalf("expected ErrGasOverflow, got %v", err)
	}
}

func TestAssurancesTransitionEvictsOnSuperMajority(t *testing.T) {
	pre := freshState()
	pre.Pending[0] = &jamstate.PendingAssignment{Report: jamstate.WorkReport{Core: 0}}
	crypto := &xcrypto.Provider{}
	lookup := func(idx jamstate.ValidatorIndex) (jamstate.Ed25519Public, bool) { return jamstate.Ed25519Public{}, true }

	var assurances []Assurance
	for i := jamstate.ValidatorIndex(0); i < jamstate.ValidatorIndex(params.Tiny.ValidatorsSuperMajority); i++ {
		assurances = append(assurances, Assurance{ValidatorIndex: i, Bitfield: []bool{true}})
	}
	post, out, err := AssurancesTransition(pre, AssurancesInput{Assurances: assurances}, params.Tiny, crypto, lookup)
	if err != nil {
		t.Fatalf("AssurancesTransition: %v", err)
	}
	if post.Pending[0] != nil {
		t.Fatal("expected core 0 evicted after super-majority assurance")
	}
	if len(out.Available) != 1 {
		t.Fatalf("expected one available core, got %d", len(out.Available))
	}
}

func TestHistoryTransitionAppendsBlock(t *testing.T) {
	pre := freshState()
	in := HistoryInput{HeaderHash: jamstate.HeaderHash{0x01}}
	post, err := HistoryTransition(pre, in, params.Tiny)
	if err != nil {
		t.Fatalf("HistoryTransition: %v", err)
	}
	if len(post.History.Blocks) != 1 {
		t.Fatalf("expected one block appended, got %d", len(post.History.Blocks))
	}
}

func TestPreimagesTransitionRejectsUnneeded(t *testing.T) {
	pre := freshState()
	acc := jamstate.NewServiceAccount(jamstate.OpaqueHash{})
	pre.Services[1] = acc
	blake2b256 := xcrypto.Blake2b256

	in := PreimagesInput{Entries: []PreimageEntry{{Requester: 1, Blob: []byte("hello")}}}
	_, err := PreimagesTransition(pre, in, params.Tiny, blake2b256)
	if err != ErrPreimageUnneeded {
		t.Fatalf("expected ErrPreimageUnneeded, got %v", err)
	}
}

func TestPreimagesTransitionAdmitsRequested(t *testing.T) {
	pre := freshState()
	acc := jamstate.NewServiceAccount(jamstate.OpaqueHash{})
	blob := []byte("hello")
	hash := xcrypto.Blake2b256(blob)
	key := jamstate.PreimageLookupKey{Hash: jamstate.OpaqueHash(hash), Length: uint32(len(blob))}
	acc.PreimageLookups[key] = nil
	pre.Services[1] = acc

	in := PreimagesInput{Entries: []PreimageEntry{{Requester: 1, Blob: blob}}}
	post, err := PreimagesTransition(pre, in, params.Tiny, xcrypto.Blake2b256)
	if err != nil {
		t.Fatalf("PreimagesTransition: %v", err)
	}
	if _, ok := post.Services[1].Preimages[jamstate.OpaqueHash(hash)]; !ok {
		t.Fatal("expected preimage admitted")
	}
}

func TestStatisticsTransitionBumpsCounters(t *testing.T) {
	pre := freshState()
	in := StatisticsInput{
		BlockProducer:    0,
		TicketSubmitters: []jamstate.ValidatorIndex{1, 2},
	}
	post, err := StatisticsTransition(pre, in)
	if err != nil {
		t.Fatalf("StatisticsTransition: %v", err)
	}
	if post.Stats.Current[0].BlocksProduced != 1 {
		t.Fatalf("expected validator 0 blocks produced = 1, got %d", post.Stats.Current[0].BlocksProduced)
	}
	if post.Stats.Current[1].TicketsSubmitted != 1 || post.Stats.Current[2].TicketsSubmitted != 1 {
		t.Fatal("expected ticket submitters bumped")
	}
}

func TestApplyBlockIsAtomicOnError(t *testing.T) {
	pre := freshState()
	pre.Slot = 5
	crypto := xcrypto.Default()

	b := Block{
		Safrole: SafroleInput{Slot: 1}, // slot goes backwards: must fail
	}
	out, _, err := ApplyBlock(pre, b, params.Tiny, crypto)
	if err == nil {
		t.Fatal("expected an error from a backwards safrole slot")
	}
	if out != pre {
		t.Fatal("ApplyBlock must return the original pre-state pointer on error")
	}
}
