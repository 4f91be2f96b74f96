package videocall

import (
	dto "github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
)

// Status is the client view of a request status
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"

	// StatusTimeout is never stored; WaitForResponse returns it when the window elapses
	StatusTimeout Status = "timeout"
)

// IsTerminal reports whether the callee has answered
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// Request is the record shape shared by the API and the offline mirror
type Request = dto.CallRequestResponse

// Participant identifies a caller or callee
type Participant = dto.ParticipantInfo

// SubmitResult is returned by Service.Submit
type SubmitResult struct {
	RequestID string
	RoomName  string
	Message   string
	Offline   bool
}

// AcceptResult is returned by Service.Accept
type AcceptResult struct {
	RoomName   string
	CallerInfo Participant
	Session    *dto.SessionResponse
	Offline    bool
}

// WaitResult is returned by Service.WaitForResponse
type WaitResult struct {
	Status     Status
	RoomName   string
	CalleeInfo *Participant
	Session    *dto.SessionResponse
	Offline    bool
}

// PendingResult is one observation of the pending list
type PendingResult struct {
	Requests []*Request
	Offline  bool
}
