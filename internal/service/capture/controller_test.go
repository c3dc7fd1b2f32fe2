package capture

import (
	"context"
	"errors"
	"sync"
	"testing"

	"photocapture/internal/logger"
	"photocapture/internal/model"
	"photocapture/internal/service/preview"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCamera struct {
	device *fakeDevice
	frame  []byte
	err    error
	closed bool
}

func (c *fakeCamera) Frame() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.frame, nil
}

func (c *fakeCamera) Close() error {
	c.device.mu.Lock()
	defer c.device.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.device.open--
	}
	return nil
}

type fakeDevice struct {
	mu       sync.Mutex
	open     int
	opened   int
	openErr  error
	frameErr error
	// Open parks between entered and release when both are set.
	entered chan struct{}
	release chan struct{}
}

func (d *fakeDevice) Open(ctx context.Context) (Camera, error) {
	if d.entered != nil {
		d.entered <- struct{}{}
		<-d.release
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.open++
	d.opened++
	return &fakeCamera{device: d, frame: []byte{0xFF, 0xD8, 0xFF, 0xD9}, err: d.frameErr}, nil
}

func (d *fakeDevice) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

type recordingNotifier struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

type fakeSubmitter struct {
	mu       sync.Mutex
	requests []model.CreateRequest
	err      error
	entered  chan struct{}
	release  chan struct{}
	creating bool
}

func (s *fakeSubmitter) Create(ctx context.Context, req model.CreateRequest) (model.Snapshot, error) {
	s.mu.Lock()
	s.creating = true
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creating = false
	if s.err != nil {
		return model.Snapshot{}, s.err
	}
	return model.Snapshot{ID: "s1", Status: model.StatusPending}, nil
}

func (s *fakeSubmitter) IsCreating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creating
}

type fixture struct {
	ctrl      *Controller
	device    *fakeDevice
	previews  *preview.Registry
	submitter *fakeSubmitter
	notifier  *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		device:    &fakeDevice{},
		previews:  preview.NewRegistry("/previews/"),
		submitter: &fakeSubmitter{},
		notifier:  &recordingNotifier{},
	}
	f.ctrl = NewController(f.device, f.previews, f.submitter, f.notifier, logger.NewTest(t))
	return f
}

func (f *fixture) captureBoth(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, slot := range model.Slots {
		require.NoError(t, f.ctrl.Start(ctx, slot))
		_, err := f.ctrl.Capture(ctx)
		require.NoError(t, err)
	}
}

func TestController_OneSessionAtATime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, model.SlotFront))
	assert.ErrorIs(t, f.ctrl.Start(ctx, model.SlotTop), ErrSessionBusy)
	assert.Equal(t, 1, f.device.openCount())

	state := f.ctrl.State()
	assert.Equal(t, model.SlotFront, state.Active)
	for _, s := range state.Slots {
		assert.False(t, s.CanStart, "start disabled for %s while a session runs", s.Slot)
	}
}

func TestController_CaptureReleasesCamera(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, model.SlotFront))
	photo, err := f.ctrl.Capture(ctx)
	require.NoError(t, err)

	assert.Zero(t, f.device.openCount())
	assert.Equal(t, model.SlotFront, photo.Slot)
	assert.Equal(t, "front-photo.jpg", photo.Filename)
	assert.Equal(t, "image/jpeg", photo.ContentType)
	assert.NotEmpty(t, photo.PreviewURL)

	data, _, ok := f.previews.Get(photo.PreviewID)
	require.True(t, ok)
	assert.Equal(t, photo.Data, data)

	assert.ErrorIs(t, f.ctrl.Start(ctx, model.SlotFront), ErrSlotCaptured)
}

func TestController_FailedCaptureStillReleasesCamera(t *testing.T) {
	f := newFixture(t)
	f.device.frameErr = ErrNoFrame
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, model.SlotTop))
	_, err := f.ctrl.Capture(ctx)
	assert.ErrorIs(t, err, ErrNoFrame)

	assert.Zero(t, f.device.openCount())
	assert.Zero(t, f.previews.Len())
	assert.Empty(t, f.ctrl.State().Active)
}

func TestController_CameraFailureNotifies(t *testing.T) {
	f := newFixture(t)
	f.device.openErr = errors.New("permission denied")

	err := f.ctrl.Start(context.Background(), model.SlotFront)
	assert.ErrorIs(t, err, ErrCameraUnavailable)
	assert.Equal(t, []string{NoticeCameraFailed}, f.notifier.errors)

	state := f.ctrl.State()
	assert.Empty(t, state.Active)
	assert.True(t, state.Slots[0].CanStart)
}

func TestController_StopCancelsSession(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.ctrl.Stop())
	require.NoError(t, f.ctrl.Start(context.Background(), model.SlotFront))
	assert.True(t, f.ctrl.Stop())
	assert.Zero(t, f.device.openCount())

	_, err := f.ctrl.Frame()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = f.ctrl.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestController_FrameFromActiveSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Start(context.Background(), model.SlotFront))

	frame, err := f.ctrl.Frame()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, frame)
}

func TestController_RetakeRevokesPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, model.SlotFront))
	first, err := f.ctrl.Capture(ctx)
	require.NoError(t, err)

	assert.True(t, f.ctrl.Retake(model.SlotFront))
	_, _, ok := f.previews.Get(first.PreviewID)
	assert.False(t, ok)
	assert.False(t, f.ctrl.Retake(model.SlotFront))

	require.NoError(t, f.ctrl.Start(ctx, model.SlotFront))
	second, err := f.ctrl.Capture(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.PreviewID, second.PreviewID)
	assert.Equal(t, 1, f.previews.Len())
}

func TestController_SubmitRequiresBothPhotos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, model.SlotFront))
	_, err := f.ctrl.Capture(ctx)
	require.NoError(t, err)

	_, err = f.ctrl.Submit(ctx)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, []string{NoticeIncomplete}, f.notifier.errors)
	assert.Empty(t, f.submitter.requests)
	assert.False(t, f.ctrl.State().CanSubmit)
}

func TestController_SubmitSuccessClearsSlots(t *testing.T) {
	f := newFixture(t)
	f.captureBoth(t)
	assert.True(t, f.ctrl.State().CanSubmit)

	created, err := f.ctrl.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", created.ID)

	require.Len(t, f.submitter.requests, 1)
	req := f.submitter.requests[0]
	assert.Equal(t, model.SlotFront, req.Front.Slot)
	assert.Equal(t, model.SlotTop, req.Top.Slot)

	assert.Zero(t, f.previews.Len())
	assert.Equal(t, []string{NoticeUploaded}, f.notifier.successes)
	for _, s := range f.ctrl.State().Slots {
		assert.False(t, s.Captured)
		assert.True(t, s.CanStart)
	}
}

func TestController_SubmitFailureKeepsPhotos(t *testing.T) {
	f := newFixture(t)
	f.submitter.err = errors.New("backend down")
	f.captureBoth(t)

	_, err := f.ctrl.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{NoticeUploadFailed}, f.notifier.errors)
	assert.Equal(t, 2, f.previews.Len())
	state := f.ctrl.State()
	assert.True(t, state.CanSubmit)
	assert.False(t, state.Submitting)
}

func TestController_SubmitWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.submitter.entered = make(chan struct{})
	f.submitter.release = make(chan struct{})
	f.captureBoth(t)

	done := make(chan error)
	go func() {
		_, err := f.ctrl.Submit(context.Background())
		done <- err
	}()
	<-f.submitter.entered

	state := f.ctrl.State()
	assert.True(t, state.Submitting)
	assert.False(t, state.CanSubmit)
	_, err := f.ctrl.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(f.submitter.release)
	require.NoError(t, <-done)
	assert.Len(t, f.submitter.requests, 1)
}

func TestController_CloseReleasesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Start(ctx, model.SlotFront))
	_, err := f.ctrl.Capture(ctx)
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Start(ctx, model.SlotTop))

	require.NoError(t, f.ctrl.Close())
	assert.Zero(t, f.device.openCount())
	assert.Zero(t, f.previews.Len())
	assert.ErrorIs(t, f.ctrl.Start(ctx, model.SlotTop), ErrClosed)
}

func gatedFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.device.entered = make(chan struct{})
	f.device.release = make(chan struct{})
	return f
}

func (f *fixture) startInBackground(slot model.Slot) <-chan error {
	done := make(chan error, 1)
	go func() { done <- f.ctrl.Start(context.Background(), slot) }()
	<-f.device.entered
	return done
}

func TestController_StateWhileCameraOpens(t *testing.T) {
	f := gatedFixture(t)
	done := f.startInBackground(model.SlotFront)

	view := f.ctrl.State()
	assert.Equal(t, model.SlotFront, view.Opening)
	assert.Empty(t, view.Active)
	for _, slot := range view.Slots {
		assert.False(t, slot.CanStart, slot.Slot)
	}
	assert.ErrorIs(t, f.ctrl.Start(context.Background(), model.SlotTop), ErrSessionBusy)
	_, err := f.ctrl.Frame()
	assert.ErrorIs(t, err, ErrNoSession)

	close(f.device.release)
	require.NoError(t, <-done)
	view = f.ctrl.State()
	assert.Equal(t, model.SlotFront, view.Active)
	assert.Empty(t, view.Opening)
	assert.Equal(t, 1, f.device.openCount())
}

func TestController_StopWhileOpeningReleasesCamera(t *testing.T) {
	f := gatedFixture(t)
	done := f.startInBackground(model.SlotFront)

	assert.True(t, f.ctrl.Stop())
	close(f.device.release)
	assert.ErrorIs(t, <-done, ErrStartCancelled)

	assert.Zero(t, f.device.openCount())
	assert.Empty(t, f.ctrl.State().Active)
	assert.False(t, f.ctrl.Stop())
}

func TestController_CloseWhileOpeningReleasesCamera(t *testing.T) {
	f := gatedFixture(t)
	done := f.startInBackground(model.SlotTop)

	require.NoError(t, f.ctrl.Close())
	close(f.device.release)
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Zero(t, f.device.openCount())
}
