package stf

import (
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
)

// HistoryInput bundles the per-block inputs the history STF needs: the
// new block's own header/beefy/state roots and the packages it reported.
type HistoryInput struct {
	HeaderHash jamstate.HeaderHash
	BeefyRoot  jamstate.BeefyRoot
	StateRoot  jamstate.StateRoot
	Reported   []jamstate.ReportedPackageInfo
}

// HistoryTransition appends one BlockInfo to beta, evicting the oldest
// entry beyond recent_history_size.
func HistoryTransition(pre *jamstate.JamState, in HistoryInput, p params.Params) (*jamstate.JamState, error) {
	post := pre.Clone()
	post.History.Append(jamstate.BlockInfo{
		HeaderHash: in.HeaderHash,
		BeefyRoot:  in.BeefyRoot,
		StateRoot:  in.StateRoot,
		Reported:   in.Reported,
	}, p.RecentHistorySize)
	post.History.BeefyMMR = append(post.History.BeefyMMR, in.BeefyRoot)
	return post, nil
}
