package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// CallRequestStatus represents where a video call request is in its lifecycle
type CallRequestStatus string

const (
	CallRequestStatusPending  CallRequestStatus = "pending"
	CallRequestStatusAccepted CallRequestStatus = "accepted"
	CallRequestStatusDeclined CallRequestStatus = "declined"
)

// IsTerminal reports whether no further transition is allowed
func (s CallRequestStatus) IsTerminal() bool {
	return s == CallRequestStatusAccepted || s == CallRequestStatusDeclined
}

// Valid reports whether s is a known status
func (s CallRequestStatus) Valid() bool {
	switch s {
	case CallRequestStatusPending, CallRequestStatusAccepted, CallRequestStatusDeclined:
		return true
	}
	return false
}

// ParticipantInfo identifies one side of a call
type ParticipantInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// CallRequest is a caller's request for a video consultation.
// Only Status, AcceptedAt, DeclinedAt and CalleeInfo change after creation.
type CallRequest struct {
	ID          string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	CallerID    string            `gorm:"type:varchar(255);not null;default:''" json:"callerId"`
	CallerName  string            `gorm:"type:varchar(255);not null" json:"callerName"`
	CallerEmail string            `gorm:"type:varchar(255);not null;default:''" json:"callerEmail"`
	CalleeID    *string           `gorm:"type:varchar(255);index" json:"calleeId"`
	RoomName    string            `gorm:"type:varchar(255);not null;index" json:"roomName"`
	Status      CallRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   int64             `gorm:"not null;index;autoCreateTime:milli" json:"createdAt"` // epoch milliseconds
	Timestamp   string            `gorm:"type:varchar(64);not null" json:"timestamp"`
	AcceptedAt  *time.Time        `json:"acceptedAt,omitempty"`
	DeclinedAt  *time.Time        `json:"declinedAt,omitempty"`
	CalleeInfo  datatypes.JSON    `gorm:"type:jsonb" json:"calleeInfo,omitempty"`
}

// TableName specifies the table name for CallRequest
func (CallRequest) TableName() string {
	return "call_requests"
}

// NewCallRequest builds a pending request created at now
func NewCallRequest(id string, caller ParticipantInfo, calleeID *string, roomName string, now time.Time) *CallRequest {
	return &CallRequest{
		ID:          id,
		CallerID:    caller.ID,
		CallerName:  caller.Name,
		CallerEmail: caller.Email,
		CalleeID:    calleeID,
		RoomName:    roomName,
		Status:      CallRequestStatusPending,
		CreatedAt:   now.UnixMilli(),
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
	}
}

// IsPending checks if the request still awaits a callee decision
func (r *CallRequest) IsPending() bool {
	return r.Status == CallRequestStatusPending
}

// Caller returns the requester identity
func (r *CallRequest) Caller() ParticipantInfo {
	return ParticipantInfo{
		ID:    r.CallerID,
		Name:  r.CallerName,
		Email: r.CallerEmail,
	}
}

// Callee decodes the callee info stored on acceptance, nil before that
func (r *CallRequest) Callee() *ParticipantInfo {
	if len(r.CalleeInfo) == 0 {
		return nil
	}
	var info ParticipantInfo
	if err := json.Unmarshal(r.CalleeInfo, &info); err != nil {
		return nil
	}
	return &info
}

// Accept moves a pending request to accepted
func (r *CallRequest) Accept(callee ParticipantInfo, at time.Time) error {
	if !r.IsPending() {
		return ErrCallRequestResolved
	}
	raw, err := json.Marshal(callee)
	if err != nil {
		return err
	}
	r.Status = CallRequestStatusAccepted
	r.CalleeInfo = datatypes.JSON(raw)
	r.AcceptedAt = &at
	return nil
}

// Decline moves a pending request to declined
func (r *CallRequest) Decline(at time.Time) error {
	if !r.IsPending() {
		return ErrCallRequestResolved
	}
	r.Status = CallRequestStatusDeclined
	r.DeclinedAt = &at
	return nil
}

// CreatedBefore reports whether the request was created strictly before cutoff
func (r *CallRequest) CreatedBefore(cutoff time.Time) bool {
	return r.CreatedAt < cutoff.UnixMilli()
}

// Clone returns a deep copy safe to hand out as a snapshot
func (r *CallRequest) Clone() *CallRequest {
	if r == nil {
		return nil
	}
	c := *r
	if r.CalleeID != nil {
		id := *r.CalleeID
		c.CalleeID = &id
	}
	if r.AcceptedAt != nil {
		t := *r.AcceptedAt
		c.AcceptedAt = &t
	}
	if r.DeclinedAt != nil {
		t := *r.DeclinedAt
		c.DeclinedAt = &t
	}
	if r.CalleeInfo != nil {
		c.CalleeInfo = append(datatypes.JSON(nil), r.CalleeInfo...)
	}
	return &c
}
