package videocall

import "time"

// CallRequestResponse is the wire shape of a stored request
type CallRequestResponse struct {
	ID          string           `json:"id"`
	CallerID    string           `json:"callerId"`
	CallerName  string           `json:"callerName"`
	CallerEmail string           `json:"callerEmail"`
	CalleeID    *string          `json:"calleeId"`
	RoomName    string           `json:"roomName"`
	Status      string           `json:"status"`
	Timestamp   string           `json:"timestamp"`
	CreatedAt   int64            `json:"createdAt"`
	AcceptedAt  *time.Time       `json:"acceptedAt,omitempty"`
	DeclinedAt  *time.Time       `json:"declinedAt,omitempty"`
	CalleeInfo  *ParticipantInfo `json:"calleeInfo,omitempty"`
}

// SessionResponse carries join credentials for the provisioned room
type SessionResponse struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// SubmitResponse represents the response after submitting a request
type SubmitResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	RoomName  string `json:"roomName"`
	Message   string `json:"message"`
}

// StatusResponse represents the caller's status poll result
type StatusResponse struct {
	Success    bool             `json:"success"`
	Status     string           `json:"status"`
	RoomName   string           `json:"roomName"`
	CalleeInfo *ParticipantInfo `json:"calleeInfo"`
	Session    *SessionResponse `json:"session,omitempty"`
}

// PendingRequestsResponse represents the callee's pending list
type PendingRequestsResponse struct {
	Success  bool                   `json:"success"`
	Requests []*CallRequestResponse `json:"requests"`
	Error    string                 `json:"error,omitempty"`
}

// AcceptResponse represents the response after accepting a request
type AcceptResponse struct {
	Success    bool             `json:"success"`
	RoomName   string           `json:"roomName"`
	CallerInfo ParticipantInfo  `json:"callerInfo"`
	Session    *SessionResponse `json:"session,omitempty"`
}

// DeclineResponse represents the response after declining a request
type DeclineResponse struct {
	Success bool `json:"success"`
}

// CleanupResponse represents the response after a purge
type CleanupResponse struct {
	Success      bool  `json:"success"`
	RemovedCount int64 `json:"removedCount"`
}

// ErrorResponse represents a failed call
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// EventMessage is one frame of the event stream
type EventMessage struct {
	Type         string               `json:"type"`
	Request      *CallRequestResponse `json:"request,omitempty"`
	RemovedCount int64                `json:"removedCount,omitempty"`
	OccurredAt   time.Time            `json:"occurredAt"`
}
