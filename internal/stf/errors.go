// Package stf implements the seven per-subsystem state-transition functions
// plus the fixed-order block orchestrator; accumulation lives in
// internal/accumulate and is run by the orchestrator. Grounded on
// consensus/epoch_processor.go's pure-function transition style (a
// transition function takes the relevant state slice plus inputs and an
// explicit param struct, returns a new slice or a sentinel error) and its
// top-of-file `var (ErrEP... = errors.New(...))` error-vocabulary
// convention, reused here per subsystem.
package stf

import "errors"

// Safrole errors.
var (
	ErrBadSlot           = errors.New("stf: bad_slot")
	ErrUnexpectedTicket  = errors.New("stf: unexpected_ticket")
	ErrBadTicketOrder    = errors.New("stf: bad_ticket_order")
	ErrBadTicketProof    = errors.New("stf: bad_ticket_proof")
	ErrBadTicketAttempt  = errors.New("stf: bad_ticket_attempt")
	ErrDuplicateTicket   = errors.New("stf: duplicate_ticket")
)

// Disputes errors.
var (
	ErrAlreadyJudged          = errors.New("stf: already_judged")
	ErrBadVoteSplit           = errors.New("stf: bad_vote_split")
	ErrVerdictsNotSortedUnique = errors.New("stf: verdicts_not_sorted_unique")
	ErrCulpritsNotSortedUnique = errors.New("stf: culprits_not_sorted_unique")
	ErrFaultsNotSortedUnique   = errors.New("stf: faults_not_sorted_unique")
	ErrNotEnoughCulprits      = errors.New("stf: not_enough_culprits")
	ErrNotEnoughFaults        = errors.New("stf: not_enough_faults")
	ErrCulpritsVerdictNotBad  = errors.New("stf: culprits_verdict_not_bad")
	ErrFaultVerdictWrong      = errors.New("stf: fault_verdict_wrong")
	ErrOffenderAlreadyReported = errors.New("stf: offender_already_reported")
	ErrBadJudgementAge        = errors.New("stf: bad_judgement_age")
	ErrBadValidatorIndex      = errors.New("stf: bad_validator_index")
	ErrBadSignature           = errors.New("stf: bad_signature")
	ErrBadGuarantorKey        = errors.New("stf: bad_guarantor_key")
	ErrBadAuditorKey          = errors.New("stf: bad_auditor_key")
)

// Reports (guarantees) errors.
var (
	ErrBadCoreIndex       = errors.New("stf: bad_core_index")
	ErrCoreNotFree        = errors.New("stf: core_not_free")
	ErrAnchorNotRecent    = errors.New("stf: anchor_not_recent")
	ErrBadStateRoot       = errors.New("stf: bad_state_root")
	ErrBadBeefyRoot       = errors.New("stf: bad_beefy_root")
	ErrSegmentRootMismatch = errors.New("stf: segment_root_lookup_invalid")
	ErrGasOverflow        = errors.New("stf: work_report_gas_too_high")
	ErrMissingAuthorization = errors.New("stf: authorizer_not_in_pool")
	ErrReportBadSignature = errors.New("stf: bad_signature")
)

// Assurances errors.
var (
	ErrAssuranceBadValidatorIndex = errors.New("stf: bad_validator_index")
	ErrAssuranceBadSignature      = errors.New("stf: bad_signature")
	ErrAssuranceForNoAssignment   = errors.New("stf: assurance_for_empty_core")
)

// Preimages errors.
var (
	ErrPreimagesNotSortedUnique = errors.New("stf: preimages_not_sorted_unique")
	ErrPreimageUnneeded         = errors.New("stf: preimage_unneeded")
)
