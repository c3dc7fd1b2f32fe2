// Package stream pumps live camera frames to preview viewers.
package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"photocapture/internal/logger"
	"photocapture/internal/service/capture"
)

// FrameSource yields the current JPEG frame of the active camera session.
type FrameSource interface {
	Frame() ([]byte, error)
}

// Hub delivers messages to connected viewers.
type Hub interface {
	Broadcast(message []byte)
	GetClientCount() int
}

type frameMessage struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

type Service struct {
	source   FrameSource
	hub      Hub
	interval time.Duration
	logger   *logger.Logger
}

// NewService creates a pump sending fps frames per second. fps below 1 is treated as 1.
func NewService(source FrameSource, hub Hub, fps int, logger *logger.Logger) *Service {
	if fps < 1 {
		fps = 1
	}
	return &Service{
		source:   source,
		hub:      hub,
		interval: time.Second / time.Duration(fps),
		logger:   logger,
	}
}

// Run sends frames until ctx is cancelled. Ticks without viewers or without an
// active session are skipped.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick pushes one frame. It reports whether a frame was sent.
func (s *Service) Tick() bool {
	if s.hub.GetClientCount() == 0 {
		return false
	}

	frame, err := s.source.Frame()
	if errors.Is(err, capture.ErrNoSession) {
		return false
	}
	if err != nil {
		s.logger.Warning("Failed to read preview frame: %v", err)
		return false
	}

	msg, err := EncodeFrame(frame)
	if err != nil {
		s.logger.Error("Failed to encode preview frame: %v", err)
		return false
	}
	s.hub.Broadcast(msg)
	return true
}

// EncodeFrame wraps a JPEG frame in the viewer message format.
func EncodeFrame(frame []byte) ([]byte, error) {
	return json.Marshal(frameMessage{
		Type:  "frame",
		Image: base64.StdEncoding.EncodeToString(frame),
	})
}
