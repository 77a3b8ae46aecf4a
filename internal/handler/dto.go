package handler

import (
	"mbti-quest/internal/scene"
	"mbti-quest/internal/voice"
)

// --- /api/gemini ---

type geminiRequest struct {
	PersonalityType string `json:"personality_type" binding:"required"`
	Age             int    `json:"age" binding:"required"`
}

// --- /api/quiz ---

type tickRequest struct {
	scene.Input
	DtMs int `json:"dt_ms" binding:"gte=0,lte=1000"`
}

type chooseRequest struct {
	Option string `json:"option" binding:"required,oneof=A B a b"`
}

type insightRequest struct {
	Age int `json:"age" binding:"required"`
}

// --- /api/voice ---

type speakRequest struct {
	Text      string `json:"text" binding:"required"`
	VoiceID   string `json:"voice_id"`
	SessionID string `json:"session_id"`
}

type voicesResponse struct {
	Voices     []voice.Voice `json:"voices"`
	Default    string        `json:"default"`
	Configured bool          `json:"configured"`
}

// --- /ws/quiz ---

// wsCommand is one frame sent by the client.
type wsCommand struct {
	Type   string      `json:"type" validate:"required,oneof=input start interact close choose restart insight"`
	Input  scene.Input `json:"input"`
	Option string      `json:"option" validate:"required_if=Type choose,omitempty,oneof=A B a b"`
	Age    int         `json:"age" validate:"required_if=Type insight"`
}

// wsMessage is one frame sent to the client.
type wsMessage struct {
	Type  string      `json:"type"`
	State interface{} `json:"state,omitempty"`
	Error string      `json:"error,omitempty"`
}
