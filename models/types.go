// Package models contain needed models
package models

// StegoResponse is the JSON body of every failed request and of successful
// requests that return no file.
type StegoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// ExtractResponse represents the response after extraction
type ExtractResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	SecretMessage string `json:"secret_message"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
}

// CapacityResponse describes how much text an image can carry
type CapacityResponse struct {
	Success         bool   `json:"success"`
	Format          string `json:"format"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	CapacityBits    int    `json:"capacity_bits"`
	MaxMessageBytes int    `json:"max_message_bytes"`
}

// SessionResponse is returned when a cover is parked for a later message
type SessionResponse struct {
	Success         bool   `json:"success"`
	SessionID       string `json:"session_id"`
	ExpiresIn       int    `json:"expires_in"`
	MaxMessageBytes int    `json:"max_message_bytes"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// EmbedResult summarizes an embed operation for headers and CLI output
type EmbedResult struct {
	OutputName   string
	ContentType  string
	Data         []byte
	CapacityBits int
	FrameBits    int
	PSNR         float64
}
