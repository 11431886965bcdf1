// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

// Kind groups codes by how callers should react to them.
type Kind string

const (
	// KindValidation marks a rejected action; state was not touched.
	KindValidation Kind = "validation"
	// KindNotFound marks an unknown game or player.
	KindNotFound Kind = "not_found"
	// KindContention marks a lock that could not be acquired in time.
	KindContention Kind = "contention"
	// KindPersistence marks a write that lost a compare-and-swap race.
	KindPersistence Kind = "persistence"
	// KindInternal marks everything else.
	KindInternal Kind = "internal"
)

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Action validation errors
	CodeGameCompleted      Code = "GAME_COMPLETED"
	CodePhaseMismatch      Code = "PHASE_MISMATCH"
	CodeRoleMismatch       Code = "ROLE_MISMATCH"
	CodePayloadInvalid     Code = "PAYLOAD_INVALID"
	CodeActionKindUnknown  Code = "ACTION_KIND_UNKNOWN"
	CodeCardNotInHand      Code = "CARD_NOT_IN_HAND"
	CodeSceneOptionInvalid Code = "SCENE_OPTION_INVALID"
	CodeNoBadgeRemaining   Code = "NO_BADGE_REMAINING"
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"

	// Setup errors
	CodePlayerCountInvalid Code = "PLAYER_COUNT_INVALID"
	CodeCatalogExhausted   Code = "CATALOG_EXHAUSTED"

	// Lookup errors
	CodeGameNotFound   Code = "GAME_NOT_FOUND"
	CodePlayerNotFound Code = "PLAYER_NOT_FOUND"

	// Concurrency errors
	CodeGameContention      Code = "GAME_CONTENTION"
	CodePersistenceConflict Code = "PERSISTENCE_CONFLICT"
)

// Kind returns the category of the code.
func (c Code) Kind() Kind {
	switch c {
	case CodeGameCompleted,
		CodePhaseMismatch,
		CodeRoleMismatch,
		CodePayloadInvalid,
		CodeActionKindUnknown,
		CodeCardNotInHand,
		CodeSceneOptionInvalid,
		CodeNoBadgeRemaining,
		CodeNotYourTurn,
		CodePlayerCountInvalid:
		return KindValidation
	case CodeGameNotFound, CodePlayerNotFound:
		return KindNotFound
	case CodeGameContention:
		return KindContention
	case CodePersistenceConflict:
		return KindPersistence
	default:
		return KindInternal
	}
}

// Retryable reports whether a caller may resubmit the same action unchanged.
func (c Code) Retryable() bool {
	switch c.Kind() {
	case KindContention, KindPersistence:
		return true
	default:
		return false
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - malformed input
	case CodePayloadInvalid,
		CodeActionKindUnknown,
		CodePlayerCountInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeGameCompleted,
		CodePhaseMismatch,
		CodeCardNotInHand,
		CodeSceneOptionInvalid,
		CodeNoBadgeRemaining,
		CodeNotYourTurn:
		return codes.FailedPrecondition

	// PermissionDenied - actor may not perform this action
	case CodeRoleMismatch:
		return codes.PermissionDenied

	// NotFound - missing resources
	case CodeGameNotFound, CodePlayerNotFound:
		return codes.NotFound

	// Unavailable / Aborted - transient, retry later
	case CodeGameContention:
		return codes.Unavailable
	case CodePersistenceConflict:
		return codes.Aborted

	// ResourceExhausted - not enough content to deal
	case CodeCatalogExhausted:
		return codes.ResourceExhausted

	default:
		return codes.Internal
	}
}
