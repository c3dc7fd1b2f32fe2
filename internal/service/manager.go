package service

import (
	"context"
	"sync"

	"photocapture/internal/cache"
	"photocapture/internal/config"
	"photocapture/internal/logger"
	"photocapture/internal/notice"
	"photocapture/internal/service/capture"
	"photocapture/internal/service/preview"
	"photocapture/internal/service/snapshots"
	"photocapture/internal/service/stream"
	"photocapture/internal/service/websocket"
)

// PreviewPrefix is the URL prefix captured previews are served under.
const PreviewPrefix = "/previews/"

// Manager owns the capture session, the snapshot store and the live viewers.
type Manager struct {
	controller *capture.Controller
	snapshots  *snapshots.Service
	previews   *preview.Registry
	hub        *websocket.HubService
	notices    *notice.Board
	stream     *stream.Service
	logger     *logger.Logger

	wg sync.WaitGroup
}

func NewManager(device capture.Device, backend snapshots.Backend, c *cache.Cache, cfg *config.Config, logger *logger.Logger) *Manager {
	hub := websocket.NewHubService(logger)
	notices := notice.NewBoard(hub)
	previews := preview.NewRegistry(PreviewPrefix)
	snaps := snapshots.NewService(backend, c, logger)
	controller := capture.NewController(device, previews, snaps, notices, logger)

	return &Manager{
		controller: controller,
		snapshots:  snaps,
		previews:   previews,
		hub:        hub,
		notices:    notices,
		stream:     stream.NewService(controller, hub, cfg.PreviewFPS, logger),
		logger:     logger,
	}
}

// Start runs the hub and the preview stream until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.hub.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.stream.Run(ctx)
	}()
	m.logger.Info("Manager started")
}

// Close releases the camera and previews and waits for background loops.
// The context given to Start must be cancelled first.
func (m *Manager) Close() error {
	err := m.controller.Close()
	m.wg.Wait()
	return err
}

func (m *Manager) GetController() *capture.Controller { return m.controller }
func (m *Manager) GetSnapshotService() *snapshots.Service { return m.snapshots }
func (m *Manager) GetPreviewRegistry() *preview.Registry { return m.previews }
func (m *Manager) GetWebsocketService() *websocket.HubService { return m.hub }
func (m *Manager) GetNoticeBoard() *notice.Board { return m.notices }
