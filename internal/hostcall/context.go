package hostcall

import (
	"github.com/colmnet/jamcore/internal/jamstate"
	"github.com/colmnet/jamcore/internal/params"
	"github.com/colmnet/jamcore/internal/xcrypto"
)

// Dimension is one of the accumulator's two state views -- "regular"
// (current) or "exceptional" (last checkpoint) -- that every host call
// reads and mutates.
type Dimension struct {
	Services       jamstate.Services
	Privileges     jamstate.Privileges
	AuthPools      []jamstate.AuthPool
	AuthQueues     []jamstate.AuthQueue
	NextValidators jamstate.ValidatorSet
}

// Clone deep-copies a Dimension; used by the checkpoint host call and by
// the accumulator's rollback-on-trap path.
func (d Dimension) Clone() Dimension {
	out := Dimension{
		Services:       d.Services.Clone(),
		Privileges:     d.Privileges.Clone(),
		NextValidators: d.NextValidators.Clone(),
	}
	out.AuthPools = make([]jamstate.AuthPool, len(d.AuthPools))
	for i, p := range d.AuthPools {
		out.AuthPools[i] = append(jamstate.AuthPool(nil), p...)
	}
	out.AuthQueues = make([]jamstate.AuthQueue, len(d.AuthQueues))
	for i, q := range d.AuthQueues {
		out.AuthQueues[i] = append(jamstate.AuthQueue(nil), q...)
	}
	return out
}

// Transfer is a deferred inter-service transfer scheduled by the transfer
// host call and applied by the accumulator after refinement completes.
type Transfer struct {
	From   jamstate.ServiceId
	To     jamstate.ServiceId
	Amount jamstate.Balance
	Gas    jamstate.Gas
	Memo   []byte
}

// Context is the opaque accumulation context threaded through every host
// call: the regular/exceptional dimensions, the invoking service, and the
// ambient inputs (entropy, slot, params, crypto) a call may need.
type Context struct {
	Regular     Dimension
	Exceptional Dimension

	Current jamstate.ServiceId
	Entropy jamstate.Entropy
	Slot    jamstate.TimeSlot

	Transfers  []Transfer
	YieldRoot  *[32]byte

	Params params.Params
	Crypto *xcrypto.Provider
}

// Checkpoint overwrites the exceptional dimension with a clone of the
// regular dimension (host call 8).
func (c *Context) Checkpoint() {
	c.Exceptional = c.Regular.Clone()
}

// Rollback restores the regular dimension from the exceptional one,
// applied by the accumulator on service panic or trap.
func (c *Context) Rollback() {
	c.Regular = c.Exceptional.Clone()
}

// CurrentAccount returns the invoking service's account, or nil if absent
// (which should never happen for a live accumulation context).
func (c *Context) CurrentAccount() *jamstate.ServiceAccount {
	return c.Regular.Services[c.Current]
}
