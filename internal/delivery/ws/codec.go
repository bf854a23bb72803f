package ws

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mmuslimabdulj/code-relay/internal/domain"
)

var validate = validator.New()

type payloadDecoder func(data json.RawMessage) (any, error)

// decoders lists every action a client may send. Outbound-only actions are absent.
var decoders = map[domain.Action]payloadDecoder{
	domain.ActionJoinRequest:    decodeAs[domain.JoinRequestPayload],
	domain.ActionSyncFiles:      decodeAs[domain.SyncFilesPayload],
	domain.ActionFileCreated:    decodeAs[domain.FilePayload],
	domain.ActionFileUpdated:    decodeAs[domain.FilePayload],
	domain.ActionFileRenamed:    decodeAs[domain.FilePayload],
	domain.ActionFileDeleted:    decodeAs[domain.FileDeletedPayload],
	domain.ActionUserOffline:    decodeAs[domain.StatusPayload],
	domain.ActionUserOnline:     decodeAs[domain.StatusPayload],
	domain.ActionSendMessage:    decodeAs[domain.SendMessagePayload],
	domain.ActionTypingStart:    decodeAs[domain.TypingStartPayload],
	domain.ActionTypingPause:    decodeAs[domain.EmptyPayload],
	domain.ActionRequestDrawing: decodeAs[domain.EmptyPayload],
	domain.ActionSyncDrawing:    decodeAs[domain.SyncDrawingPayload],
	domain.ActionDrawingUpdate:  decodeAs[domain.DrawingUpdatePayload],
}

func decodeAs[T any](data json.RawMessage) (any, error) {
	var payload T
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}
	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return payload, nil
}

// DecodeInbound parses a client frame into its action and typed payload.
// Unknown actions and payloads that fail validation return an error.
func DecodeInbound(frame []byte) (domain.Action, any, error) {
	var envelope domain.Event
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	decode, ok := decoders[envelope.Name]
	if !ok {
		return envelope.Name, nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, envelope.Name)
	}

	payload, err := decode(envelope.Data)
	if err != nil {
		return envelope.Name, nil, err
	}
	return envelope.Name, payload, nil
}

// EncodeOutbound serializes an outbound event into a wire frame
func EncodeOutbound(evt domain.OutboundEvent) ([]byte, error) {
	return json.Marshal(evt)
}
