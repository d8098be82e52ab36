package jamstate

import (
	"errors"

	"github.com/colmnet/jamcore/internal/codec"
)

// Ticket is one entry of the Safrole ticket accumulator γ_a: a ring-VRF
// output id and the attempt number that produced it.
type Ticket struct {
	Id      OpaqueHash
	Attempt uint8
}

func (t Ticket) Encode() []byte {
	out := encodeHash32([32]byte(t.Id))
	return append(out, t.Attempt)
}

func DecodeTicket(b []byte) (Ticket, int, error) {
	var t Ticket
	id, n, err := decodeHash32(b)
	if err != nil {
		return t, 0, err
	}
	if len(b) < n+1 {
		return t, 0, codec.ErrShortRead
	}
	t.Id = OpaqueHash(id)
	t.Attempt = b[n]
	return t, n + 1, nil
}

// SealerSeriesKind discriminates γ_s: either the epoch sealed with an
// ordered list of tickets, or it fell back to a deterministic sequence of
// Bandersnatch keys, per the Safrole epoch-boundary rule.
type SealerSeriesKind uint8

const (
	SealerSeriesTickets SealerSeriesKind = 0
	SealerSeriesKeys    SealerSeriesKind = 1
)

// SealerSeries is the per-slot sealer assignment for the current epoch.
type SealerSeries struct {
	Kind    SealerSeriesKind
	Tickets []Ticket
	Keys    []BandersnatchPublic
}

func (s SealerSeries) Encode() []byte {
	out := []byte{byte(s.Kind)}
	switch s.Kind {
	case SealerSeriesTickets:
		elems := make([][]byte, len(s.Tickets))
		for i, t := range s.Tickets {
			elems[i] = t.Encode()
		}
		out = append(out, codec.EncodeSequence(elems)...)
	case SealerSeriesKeys:
		elems := make([][]byte, len(s.Keys))
		for i, k := range s.Keys {
			elems[i] = codec.EncodeFixedBytes(k[:])
		}
		out = append(out, codec.EncodeSequence(elems)...)
	}
	return out
}

func DecodeSealerSeries(b []byte) (SealerSeries, int, error) {
	var s SealerSeries
	if len(b) < 1 {
		return s, 0, codec.ErrShortRead
	}
	s.Kind = SealerSeriesKind(b[0])
	total := 1
	switch s.Kind {
	case SealerSeriesTickets:
		n, hdr, err := codec.DecodeLen(b[total:])
		if err != nil {
			return s, 0, err
		}
		total += hdr
		s.Tickets = make([]Ticket, n)
		for i := 0; i < n; i++ {
			t, m, err := DecodeTicket(b[total:])
			if err != nil {
				return s, 0, err
			}
			s.Tickets[i] = t
			total += m
		}
	case SealerSeriesKeys:
		n, hdr, err := codec.DecodeLen(b[total:])
		if err != nil {
			return s, 0, err
		}
		total += hdr
		s.Keys = make([]BandersnatchPublic, n)
		for i := 0; i < n; i++ {
			raw, m, err := codec.DecodeFixedBytes(b[total:], 32)
			if err != nil {
				return s, 0, err
			}
			copy(s.Keys[i][:], raw)
			total += m
		}
	default:
		return s, 0, codec.ErrBadDiscriminator
	}
	return s, total, nil
}

// SafroleState is γ: the block-production lottery state rotated every
// epoch.
type SafroleState struct {
	NextValidatorKeys ValidatorSet
	TicketAccumulator []Ticket
	Sealer            SealerSeries
	RingRoot          OpaqueHash
}

func (s SafroleState) Encode() []byte {
	out := s.NextValidatorKeys.Encode()
	elems := make([][]byte, len(s.TicketAccumulator))
	for i, t := range s.TicketAccumulator {
		elems[i] = t.Encode()
	}
	out = append(out, codec.EncodeSequence(elems)...)
	out = append(out, s.Sealer.Encode()...)
	out = append(out, encodeHash32([32]byte(s.RingRoot))...)
	return out
}

func DecodeSafroleState(b []byte) (SafroleState, int, error) {
	var s SafroleState
	total := 0

	nv, n, err := DecodeValidatorSet(b[total:])
	if err != nil {
		return s, 0, err
	}
	s.NextValidatorKeys = nv
	total += n

	cnt, hdr, err := codec.DecodeLen(b[total:])
	if err != nil {
		return s, 0, err
	}
	total += hdr
	s.TicketAccumulator = make([]Ticket, cnt)
	for i := 0; i < cnt; i++ {
		t, m, err := DecodeTicket(b[total:])
		if err != nil {
			return s, 0, err
		}
		s.TicketAccumulator[i] = t
		total += m
	}

	sealer, n, err := DecodeSealerSeries(b[total:])
	if err != nil {
		return s, 0, err
	}
	s.Sealer = sealer
	total += n

	root, n, err := decodeHash32(b[total:])
	if err != nil {
		return s, 0, err
	}
	s.RingRoot = OpaqueHash(root)
	total += n

	return s, total, nil
}

// Clone deep-copies γ; required wherever Safrole state is reachable from an
// accumulation checkpoint.
func (s SafroleState) Clone() SafroleState {
	out := s
	out.NextValidatorKeys = s.NextValidatorKeys.Clone()
	out.TicketAccumulator = append([]Ticket(nil), s.TicketAccumulator...)
	out.Sealer.Tickets = append([]Ticket(nil), s.Sealer.Tickets...)
	out.Sealer.Keys = append([]BandersnatchPublic(nil), s.Sealer.Keys...)
	return out
}

// ErrBadTicketAttempt reports an attempt number beyond a validator's
// allowance. No function in this package returns it; internal/stf declares
// its own ErrBadTicketAttempt for the Safrole transition.
var ErrBadTicketAttempt = errors.New("jamstate: ticket attempt out of range")
