package stf

import "github.com/colmnet/jamcore/internal/jamstate"

// StatisticsInput bundles the per-validator activity deltas recorded this
// block: which validators produced blocks, submitted tickets,
// introduced preimages, guaranteed reports, or submitted assurances.
type StatisticsInput struct {
	BlockProducer       jamstate.ValidatorIndex
	TicketSubmitters    []jamstate.ValidatorIndex
	PreimageSubmitters  []jamstate.ValidatorIndex
	PreimageBytes       []uint64
	ReportGuarantors    []jamstate.ValidatorIndex
	AssuranceSubmitters []jamstate.ValidatorIndex
}

// StatisticsTransition increments per-validator counters per the extrinsic.
func StatisticsTransition(pre *jamstate.JamState, in StatisticsInput) (*jamstate.JamState, error) {
	post := pre.Clone()
	cur := post.Stats.Current

	bump := func(idx jamstate.ValidatorIndex, f func(*jamstate.ValidatorActivityRecord)) {
		if int(idx) >= len(cur) {
			return
		}
		f(&cur[idx])
	}

	bump(in.BlockProducer, func(r *jamstate.ValidatorActivityRecord) { r.BlocksProduced++ })
	for _, idx := range in.TicketSubmitters {
		bump(idx, func(r *jamstate.ValidatorActivityRecord) { r.TicketsSubmitted++ })
	}
	for i, idx := range in.PreimageSubmitters {
		var nbytes uint64
		if i < len(in.PreimageBytes) {
			nbytes = in.PreimageBytes[i]
		}
		bump(idx, func(r *jamstate.ValidatorActivityRecord) {
			r.PreimagesIntroduced++
			r.PreimageBytes += nbytes
		})
	}
	for _, idx := range in.ReportGuarantors {
		bump(idx, func(r *jamstate.ValidatorActivityRecord) { r.ReportsGuaranteed++ })
	}
	for _, idx := range in.AssuranceSubmitters {
		bump(idx, func(r *jamstate.ValidatorActivityRecord) { r.AssurancesSubmitted++ })
	}

	post.Stats.Current = cur
	return post, nil
}
