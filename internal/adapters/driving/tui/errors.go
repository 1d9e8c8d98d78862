package tui

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("tui: chat service is required")

// ErrInvalidPorts is returned when no ports are supplied.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
