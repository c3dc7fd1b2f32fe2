// Package capture drives the two-slot photo capture workflow over a single camera.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"photocapture/internal/logger"
	"photocapture/internal/metrics"
	"photocapture/internal/model"
	"photocapture/internal/service/preview"
)

const (
	NoticeCameraFailed   = "Failed to access camera. Please make sure camera permissions are granted."
	NoticeIncomplete     = "Please capture both photos"
	NoticeUploaded       = "Photos uploaded successfully!"
	NoticeUploadFailed   = "Failed to upload photos"
	capturedContentType  = "image/jpeg"
	sessionOutcomeOK     = "captured"
	sessionOutcomeCancel = "cancelled"
	sessionOutcomeFailed = "failed"
)

var (
	ErrSessionBusy       = errors.New("another camera session is active")
	ErrSlotCaptured      = errors.New("slot already holds a photo")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrNoSession         = errors.New("no active camera session")
	ErrIncomplete        = errors.New("both photos are required")
	ErrSubmitInFlight    = errors.New("submission already in progress")
	ErrClosed            = errors.New("capture controller closed")
	ErrStartCancelled    = errors.New("camera session stopped while opening")
)

// Camera is an open live camera session.
type Camera interface {
	// Frame returns the current frame JPEG-encoded at native resolution.
	Frame() ([]byte, error)
	Close() error
}

// Device opens camera sessions.
type Device interface {
	Open(ctx context.Context) (Camera, error)
}

// Notifier shows messages to the user.
type Notifier interface {
	Error(message string)
	Success(message string)
}

// Submitter sends a finished capture pair to the backend.
type Submitter interface {
	Create(ctx context.Context, req model.CreateRequest) (model.Snapshot, error)
	IsCreating() bool
}

// SlotView is the render state of one slot.
type SlotView struct {
	Slot       model.Slot
	Label      string
	Active     bool
	Captured   bool
	PreviewURL string
	CanStart   bool
}

// View is an immutable snapshot of the controller state.
type View struct {
	Active     model.Slot
	Opening    model.Slot
	Slots      []SlotView
	CanSubmit  bool
	Submitting bool
}

// Controller owns the camera and the captured photos. Its mutex is never held
// across a backend call or while the device opens.
type Controller struct {
	device    Device
	previews  *preview.Registry
	submitter Submitter
	notifier  Notifier
	logger    *logger.Logger

	mu         sync.Mutex
	active     model.Slot
	opening    model.Slot // slot whose device Open is in flight
	camera     Camera
	photos     map[model.Slot]model.Photo
	submitting bool
	closed     bool
}

func NewController(device Device, previews *preview.Registry, submitter Submitter, notifier Notifier, logger *logger.Logger) *Controller {
	return &Controller{
		device:    device,
		previews:  previews,
		submitter: submitter,
		notifier:  notifier,
		logger:    logger,
		photos:    make(map[model.Slot]model.Photo),
	}
}

// Start opens the camera for slot. The device is opened without holding the
// lock; a Stop or Close that lands meanwhile releases the new camera.
func (c *Controller) Start(ctx context.Context, slot model.Slot) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.active != "" || c.opening != "" {
		c.mu.Unlock()
		return ErrSessionBusy
	}
	if _, ok := c.photos[slot]; ok {
		c.mu.Unlock()
		return ErrSlotCaptured
	}
	c.opening = slot
	c.mu.Unlock()

	camera, err := c.device.Open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancelled := c.opening != slot
	c.opening = ""

	if err != nil {
		metrics.CameraSessions.WithLabelValues(string(slot), sessionOutcomeFailed).Inc()
		c.logger.Warning("Failed to open camera for %s: %v", slot, err)
		c.notifier.Error(NoticeCameraFailed)
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	if c.closed || cancelled {
		if cerr := camera.Close(); cerr != nil {
			c.logger.Warning("Failed to release camera: %v", cerr)
		}
		metrics.CameraSessions.WithLabelValues(string(slot), sessionOutcomeCancel).Inc()
		if c.closed {
			return ErrClosed
		}
		return ErrStartCancelled
	}

	c.active = slot
	c.camera = camera
	c.logger.Info("Camera session started for %s", slot)
	return nil
}

// Capture takes a still from the active session and ends the session.
func (c *Controller) Capture(ctx context.Context) (model.Photo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.camera == nil {
		return model.Photo{}, ErrNoSession
	}
	slot := c.active

	frame, err := c.camera.Frame()
	if err == nil {
		err = ctx.Err()
	}
	c.endSessionLocked()

	if err != nil {
		metrics.CameraSessions.WithLabelValues(string(slot), sessionOutcomeFailed).Inc()
		c.logger.Warning("Failed to capture %s photo: %v", slot, err)
		return model.Photo{}, fmt.Errorf("capture %s photo: %w", slot, err)
	}

	handle := c.previews.Create(frame, capturedContentType)
	photo := model.Photo{
		Slot:        slot,
		Data:        frame,
		ContentType: capturedContentType,
		Filename:    string(slot) + "-photo.jpg",
		PreviewID:   handle.ID,
		PreviewURL:  handle.URL,
	}
	c.photos[slot] = photo
	metrics.CameraSessions.WithLabelValues(string(slot), sessionOutcomeOK).Inc()
	c.logger.Info("Captured %s photo (%d bytes)", slot, len(frame))
	return photo, nil
}

// Stop cancels the active or opening session. It reports whether one was running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opening != "" {
		c.opening = ""
		return true
	}
	if c.camera == nil {
		return false
	}
	metrics.CameraSessions.WithLabelValues(string(c.active), sessionOutcomeCancel).Inc()
	c.endSessionLocked()
	return true
}

// Retake discards the photo held by slot.
func (c *Controller) Retake(slot model.Slot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	photo, ok := c.photos[slot]
	if !ok {
		return false
	}
	c.previews.Revoke(photo.PreviewID)
	delete(c.photos, slot)
	return true
}

// Submit sends both photos to the backend and clears the slots on success.
func (c *Controller) Submit(ctx context.Context) (model.Snapshot, error) {
	c.mu.Lock()
	if c.submitting || c.submitter.IsCreating() {
		c.mu.Unlock()
		return model.Snapshot{}, ErrSubmitInFlight
	}
	front, okFront := c.photos[model.SlotFront]
	top, okTop := c.photos[model.SlotTop]
	if !okFront || !okTop {
		c.mu.Unlock()
		c.notifier.Error(NoticeIncomplete)
		return model.Snapshot{}, ErrIncomplete
	}
	c.submitting = true
	c.mu.Unlock()

	created, err := c.submitter.Create(ctx, model.CreateRequest{Front: front, Top: top})

	c.mu.Lock()
	c.submitting = false
	if err == nil {
		for _, sent := range []model.Photo{front, top} {
			if current, ok := c.photos[sent.Slot]; ok && current.PreviewID == sent.PreviewID {
				c.previews.Revoke(sent.PreviewID)
				delete(c.photos, sent.Slot)
			}
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Failed to upload photos: %v", err)
		c.notifier.Error(NoticeUploadFailed)
		return model.Snapshot{}, err
	}
	c.logger.Info("Uploaded snapshot %s", created.ID)
	c.notifier.Success(NoticeUploaded)
	return created, nil
}

// Frame returns the live frame of the active session.
func (c *Controller) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.camera == nil {
		return nil, ErrNoSession
	}
	return c.camera.Frame()
}

// Close releases the camera and revokes every preview the controller holds.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.camera != nil {
		metrics.CameraSessions.WithLabelValues(string(c.active), sessionOutcomeCancel).Inc()
		c.endSessionLocked()
	}
	for slot, photo := range c.photos {
		c.previews.Revoke(photo.PreviewID)
		delete(c.photos, slot)
	}
	c.opening = ""
	c.closed = true
	return nil
}

func (c *Controller) State() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := View{Active: c.active, Opening: c.opening, Submitting: c.submitting}
	for _, slot := range model.Slots {
		photo, captured := c.photos[slot]
		view.Slots = append(view.Slots, SlotView{
			Slot:       slot,
			Label:      slot.Label(),
			Active:     c.active == slot,
			Captured:   captured,
			PreviewURL: photo.PreviewURL,
			CanStart:   c.active == "" && c.opening == "" && !captured && !c.closed,
		})
	}
	view.CanSubmit = len(c.photos) == len(model.Slots) && !c.submitting
	return view
}

func (c *Controller) endSessionLocked() {
	if err := c.camera.Close(); err != nil {
		c.logger.Warning("Failed to release camera: %v", err)
	}
	c.camera = nil
	c.active = ""
}
