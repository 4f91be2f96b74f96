package videocall

// ParticipantInfo identifies a caller or callee on the wire
type ParticipantInfo struct {
	ID    string `json:"id,omitempty" validate:"omitempty,max=255"`
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// SubmitRequest represents the request to create a video call request
type SubmitRequest struct {
	CallerID    string  `json:"callerId" validate:"omitempty,max=255"`
	CallerName  string  `json:"callerName" validate:"required,min=1,max=255"`
	CallerEmail string  `json:"callerEmail" validate:"omitempty,email,max=255"`
	RoomName    string  `json:"roomName" validate:"omitempty,min=1,max=255"` // generated when empty
	CalleeID    *string `json:"calleeId,omitempty" validate:"omitempty,min=1,max=255"`
}

// AcceptRequest represents the callee's acceptance
type AcceptRequest struct {
	CalleeInfo *ParticipantInfo `json:"calleeInfo" validate:"required"`
}

// CleanupRequest represents the request to purge old requests
type CleanupRequest struct {
	MaxAge *int64 `json:"maxAge,omitempty" validate:"omitempty,gt=0"` // milliseconds, 24h when absent
}

// ListPendingRequest represents query parameters for listing pending requests
type ListPendingRequest struct {
	CalleeID string `query:"calleeId" validate:"omitempty,max=255"`
}
