// Package params holds the compile-time-style constant bundles that every
// STF, the PVM and the host-call ABI are parameterized by. A Params value is
// assembled once per run and threaded explicitly through every call; nothing
// in this package reads the environment or global state.
package params

// Params bundles every protocol constant a single run is parameterized by.
// Two canonical bundles are provided: Tiny and Full.
type Params struct {
	// Name identifies the bundle, e.g. "tiny" or "full" — used only for
	// diagnostics and test-vector directory selection, never branched on
	// inside an STF.
	Name string

	CoreCount                  uint16
	EpochLength                uint32
	ValidatorsCount            uint16
	ValidatorsSuperMajority    uint16
	TicketSubmissionEndSlot    uint32
	MaxTicketEntriesPerValidator uint32
	MaxAuthPoolItems           uint32
	MaxAuthQueueItems          uint32
	RecentHistorySize          uint32
	PreimageExpungementPeriod  uint32
	TransferMemoSize           uint32
	MaxReportAccumulateGas     uint64

	MinBalancePerItem   uint64
	MinBalancePerOctet  uint64
	BasicServiceBalance uint64

	// PVM-init constants.
	PVMPageSize       uint32
	PVMInitialZoneSize uint32
	PVMMaxMemoryPages uint32

	// Service-id generation range.
	MinPublicServiceID uint32
}

// Tiny is the small-scale parameter bundle used by the "tiny" test vectors.
var Tiny = Params{
	Name:                         "tiny",
	CoreCount:                    2,
	EpochLength:                  12,
	ValidatorsCount:              6,
	ValidatorsSuperMajority:      5,
	TicketSubmissionEndSlot:      10,
	MaxTicketEntriesPerValidator: 3,
	MaxAuthPoolItems:             8,
	MaxAuthQueueItems:            80,
	RecentHistorySize:            8,
	PreimageExpungementPeriod:    32,
	TransferMemoSize:             128,
	MaxReportAccumulateGas:       1_000_000_000,

	MinBalancePerItem:   10,
	MinBalancePerOctet:  1,
	BasicServiceBalance: 100,

	PVMPageSize:        4096,
	PVMInitialZoneSize: 1 << 16,
	PVMMaxMemoryPages:  1 << 20,

	MinPublicServiceID: 1 << 16,
}

// Full is the production-scale parameter bundle.
var Full = Params{
	Name:                         "full",
	CoreCount:                    341,
	EpochLength:                  600,
	ValidatorsCount:              1023,
	ValidatorsSuperMajority:      683,
	TicketSubmissionEndSlot:      500,
	MaxTicketEntriesPerValidator: 3,
	MaxAuthPoolItems:             8,
	MaxAuthQueueItems:            80,
	RecentHistorySize:            8,
	PreimageExpungementPeriod:    19200,
	TransferMemoSize:             128,
	MaxReportAccumulateGas:       3_500_000_000,

	MinBalancePerItem:   10,
	MinBalancePerOctet:  1,
	BasicServiceBalance: 100,

	PVMPageSize:        4096,
	PVMInitialZoneSize: 1 << 16,
	PVMMaxMemoryPages:  1 << 20,

	MinPublicServiceID: 1 << 16,
}

// ServiceIDModulus is the modulus used in the service-id generation walk
//: 2^32 - 256 - MinPublicServiceID.
func (p Params) ServiceIDModulus() uint64 {
	return (uint64(1)<<32 - 256) - uint64(p.MinPublicServiceID)
}
