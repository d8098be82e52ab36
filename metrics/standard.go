package metrics

// Pre-defined metrics for the JAM node's state-transition core. All metrics
// live in DefaultRegistry so they are globally accessible without passing a
// registry around. None of these feed back into STF outcomes -- they are
// observational only.

var (
	// ---- Block / STF metrics ----

	// BlockHeight tracks the slot of the last accepted block.
	BlockHeight = DefaultRegistry.Gauge("block.slot")
	// BlockProcessTime records full block-transition duration in microseconds.
	BlockProcessTime = DefaultRegistry.Histogram("block.process_us")
	// BlocksAccepted counts blocks whose STF pipeline returned Ok.
	BlocksAccepted = DefaultRegistry.Counter("block.accepted")
	// BlocksRejected counts blocks whose STF pipeline returned Err.
	BlocksRejected = DefaultRegistry.Counter("block.rejected")

	// ---- Per-subsystem STF metrics ----

	// SafroleTicketsAccepted counts tickets admitted by the Safrole STF.
	SafroleTicketsAccepted = DefaultRegistry.Counter("safrole.tickets_accepted")
	// DisputesVerdictsProcessed counts verdicts processed by the Disputes STF.
	DisputesVerdictsProcessed = DefaultRegistry.Counter("disputes.verdicts_processed")
	// ReportsAdmitted counts work reports admitted into the pending-reports state.
	ReportsAdmitted = DefaultRegistry.Counter("reports.admitted")
	// AssurancesProcessed counts assurance extrinsics applied.
	AssurancesProcessed = DefaultRegistry.Counter("assurances.processed")
	// PreimagesAdmitted counts preimages admitted into service accounts.
	PreimagesAdmitted = DefaultRegistry.Counter("preimages.admitted")

	// ---- PVM metrics ----

	// PVMInvocations counts PVM program executions started (one per accumulated
	// work result).
	PVMInvocations = DefaultRegistry.Counter("pvm.invocations")
	// PVMGasUsed sums gas consumed across all PVM invocations.
	PVMGasUsed = DefaultRegistry.Counter("pvm.gas_used")
	// PVMSteps counts individual fetch-decode-execute steps.
	PVMSteps = DefaultRegistry.Counter("pvm.steps")
	// PVMTraps counts terminations with a Trap/Segfault/InstanceRunError result.
	PVMTraps = DefaultRegistry.Counter("pvm.traps")

	// ---- Accumulation metrics ----

	// AccumulateReportsProcessed counts work reports accumulated.
	AccumulateReportsProcessed = DefaultRegistry.Counter("accumulate.reports_processed")
	// AccumulateDeferredTransfers counts deferred transfers applied.
	AccumulateDeferredTransfers = DefaultRegistry.Counter("accumulate.deferred_transfers")
	// AccumulateCheckpoints counts checkpoint host calls issued.
	AccumulateCheckpoints = DefaultRegistry.Counter("accumulate.checkpoints")
	// AccumulateRollbacks counts regular-dimension rollbacks on trap/panic.
	AccumulateRollbacks = DefaultRegistry.Counter("accumulate.rollbacks")
)
