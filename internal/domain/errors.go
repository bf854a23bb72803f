package domain

import "errors"

var (
	// ErrUsernameConflict means the username is already taken in the room
	ErrUsernameConflict = errors.New("username already exists in room")

	// ErrAlreadyJoined means the connection is already registered in a room
	ErrAlreadyJoined = errors.New("connection already joined a room")

	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)
