package presenter

import (
	"github.com/johnquangdev/telemed-assistant/internal/adapter/dto/videocall"
	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/events"
	videocallUsecase "github.com/johnquangdev/telemed-assistant/internal/usecase/videocall"
)

// ToCallRequestResponse converts a CallRequest entity to its wire shape
func ToCallRequestResponse(r *entities.CallRequest) *videocall.CallRequestResponse {
	if r == nil {
		return nil
	}

	return &videocall.CallRequestResponse{
		ID:          r.ID,
		CallerID:    r.CallerID,
		CallerName:  r.CallerName,
		CallerEmail: r.CallerEmail,
		CalleeID:    r.CalleeID,
		RoomName:    r.RoomName,
		Status:      string(r.Status),
		Timestamp:   r.Timestamp,
		CreatedAt:   r.CreatedAt,
		AcceptedAt:  r.AcceptedAt,
		DeclinedAt:  r.DeclinedAt,
		CalleeInfo:  ToParticipantResponse(r.Callee()),
	}
}

// ToCallRequestListResponse converts a slice of CallRequest entities
func ToCallRequestListResponse(reqs []*entities.CallRequest) []*videocall.CallRequestResponse {
	out := make([]*videocall.CallRequestResponse, len(reqs))
	for i, r := range reqs {
		out[i] = ToCallRequestResponse(r)
	}
	return out
}

// ToParticipantResponse converts a ParticipantInfo entity
func ToParticipantResponse(p *entities.ParticipantInfo) *videocall.ParticipantInfo {
	if p == nil {
		return nil
	}
	return &videocall.ParticipantInfo{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
	}
}

// ToParticipantEntity converts the wire shape back to the entity
func ToParticipantEntity(p *videocall.ParticipantInfo) entities.ParticipantInfo {
	if p == nil {
		return entities.ParticipantInfo{}
	}
	return entities.ParticipantInfo{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
	}
}

// ToSessionResponse converts session credentials
func ToSessionResponse(s *videocallUsecase.SessionCredentials) *videocall.SessionResponse {
	if s == nil {
		return nil
	}
	return &videocall.SessionResponse{URL: s.URL, Token: s.Token}
}

// ToStatusResponse converts the caller's status view
func ToStatusResponse(out *videocallUsecase.StatusOutput) *videocall.StatusResponse {
	return &videocall.StatusResponse{
		Success:    true,
		Status:     string(out.Request.Status),
		RoomName:   out.Request.RoomName,
		CalleeInfo: ToParticipantResponse(out.Request.Callee()),
		Session:    ToSessionResponse(out.Session),
	}
}

// ToAcceptResponse converts the callee's acceptance result
func ToAcceptResponse(out *videocallUsecase.AcceptOutput) *videocall.AcceptResponse {
	caller := out.Request.Caller()
	return &videocall.AcceptResponse{
		Success:    true,
		RoomName:   out.Request.RoomName,
		CallerInfo: *ToParticipantResponse(&caller),
		Session:    ToSessionResponse(out.Session),
	}
}

// ToEventMessage converts a broker event to a stream frame
func ToEventMessage(e events.Event) *videocall.EventMessage {
	return &videocall.EventMessage{
		Type:         string(e.Type),
		Request:      ToCallRequestResponse(e.Request),
		RemovedCount: e.RemovedCount,
		OccurredAt:   e.OccurredAt,
	}
}
