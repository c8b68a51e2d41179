package vault

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// CandidateSet is the pool of users allowed to resolve an approval request.
// Membership is a first-class operation; it is stored as a JSON array.
type CandidateSet map[uuid.UUID]struct{}

// NewCandidateSet builds a set from user ids, dropping nil ids
func NewCandidateSet(userIDs ...uuid.UUID) CandidateSet {
	set := make(CandidateSet, len(userIDs))
	for _, id := range userIDs {
		if id != uuid.Nil {
			set[id] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the user belongs to the pool
func (s CandidateSet) Contains(userID uuid.UUID) bool {
	_, ok := s[userID]
	return ok
}

// Len returns the pool size
func (s CandidateSet) Len() int {
	return len(s)
}

// IDs returns the members in unspecified order
func (s CandidateSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// MarshalJSON serializes the set as a JSON array of ids
func (s CandidateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON restores the set from a JSON array of ids
func (s *CandidateSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewCandidateSet(ids...)
	return nil
}

// Value implements driver.Valuer for persistence
func (s CandidateSet) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for persistence
func (s *CandidateSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = NewCandidateSet()
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into CandidateSet", value)
	}
}

// ApprovalStatus represents the status of an approval request
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// IsResolved returns true once a candidate has decided
func (s ApprovalStatus) IsResolved() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// ApprovalRequest is the any-of human sign-off gating a vault transaction.
// One-to-one with the transaction; immutable once resolved.
type ApprovalRequest struct {
	shared.BaseAggregateRoot

	TransactionID uuid.UUID      `json:"transaction_id"`
	Candidates    CandidateSet   `json:"candidate_user_ids"`
	Status        ApprovalStatus `json:"status"`
	ApprovedBy    *uuid.UUID     `json:"approved_by,omitempty"`
	RejectReason  string         `json:"reject_reason,omitempty"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
}

// NewApprovalRequest creates a pending approval request for a transaction
func NewApprovalRequest(transactionID uuid.UUID, candidates CandidateSet, now time.Time) (*ApprovalRequest, error) {
	if transactionID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TRANSACTION", "Transaction reference cannot be empty")
	}
	if candidates.Len() == 0 {
		return nil, shared.NewValidationError("EMPTY_CANDIDATE_POOL",
			"An approval request needs at least one candidate approver")
	}

	return &ApprovalRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		TransactionID:     transactionID,
		Candidates:        candidates,
		Status:            ApprovalStatusPending,
	}, nil
}

// resolvable validates the common approve/reject preconditions
func (r *ApprovalRequest) resolvable(by uuid.UUID) error {
	if r.Status.IsResolved() {
		return shared.NewStateConflictError("ALREADY_RESOLVED",
			fmt.Sprintf("Approval request %s is already %s", r.ID, r.Status))
	}
	if !r.Candidates.Contains(by) {
		return shared.NewAuthorizationError("NOT_CANDIDATE",
			fmt.Sprintf("User %s is not a candidate approver for request %s", by, r.ID))
	}
	return nil
}

// Approve resolves the request positively. Only candidates may call this.
func (r *ApprovalRequest) Approve(by uuid.UUID, now time.Time) error {
	if err := r.resolvable(by); err != nil {
		return err
	}
	r.Status = ApprovalStatusApproved
	r.ApprovedBy = &by
	r.ResolvedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject resolves the request negatively. A reason is required.
func (r *ApprovalRequest) Reject(by uuid.UUID, reason string, now time.Time) error {
	if err := r.resolvable(by); err != nil {
		return err
	}
	if reason == "" {
		return shared.NewValidationError("MISSING_REASON", "Rejection requires a reason")
	}
	r.Status = ApprovalStatusRejected
	r.ApprovedBy = &by
	r.RejectReason = reason
	r.ResolvedAt = &now
	r.UpdatedAt = now
	return nil
}
