package constants

import (
	"fmt"
	"strings"
)

type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeAudio  MessageType = "AUDIO"
	MessageTypeVideo  MessageType = "VIDEO"
	MessageTypeSystem MessageType = "SYSTEM"
)

func (t MessageType) String() string { return string(t) }

func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeAudio, MessageTypeVideo, MessageTypeSystem:
		return true
	}
	return false
}

func ParseMessageType(s string) (MessageType, error) {
	t := MessageType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown message type %q", s)
	}
	return t, nil
}
