package config

import "time"

// Room defaults and clamps
const (
	DefaultPointScalePreset = "fibonacci"

	DefaultTimerDurationSeconds = 180
	MinTimerDurationSeconds     = 15
	MaxTimerDurationSeconds     = 600

	// Demo rooms self-close after this long
	DemoRoomLifetime = 5 * time.Minute
)

// WebSocket connection limits and constraints
const (
	// Rate limiting
	MaxMessagesPerSecond = 10
	RateLimitWindow      = time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second
	PongTimeout  = 90 * time.Second // 3x ping interval for network delay tolerance

	// Channel buffers
	ClientSendBufferSize   = 256
	HubBroadcastBufferSize = 256
)
