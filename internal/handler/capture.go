package handler

import (
	"errors"
	"net/http"

	"photocapture/internal/logger"
	"photocapture/internal/model"
	"photocapture/internal/service"
	"photocapture/internal/service/capture"

	"github.com/gorilla/mux"
)

// StartCaptureHandler opens the camera for the slot in the path.
func StartCaptureHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := model.ParseSlot(mux.Vars(r)["slot"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = manager.GetController().Start(r.Context(), slot)
		switch {
		case err == nil, errors.Is(err, capture.ErrCameraUnavailable), errors.Is(err, capture.ErrStartCancelled):
			redirectHome(w, r)
		default:
			writeCaptureError(w, logger, err)
		}
	}
}

// StopCaptureHandler cancels the active camera session.
func StopCaptureHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager.GetController().Stop()
		redirectHome(w, r)
	}
}

// ShootHandler captures a still from the active session.
func ShootHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := manager.GetController().Capture(r.Context()); err != nil {
			if errors.Is(err, capture.ErrNoSession) {
				writeCaptureError(w, logger, err)
				return
			}
			manager.GetNoticeBoard().Error("Failed to capture photo")
		}
		redirectHome(w, r)
	}
}

// RetakeHandler discards the photo held by the slot in the path.
func RetakeHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := model.ParseSlot(mux.Vars(r)["slot"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		manager.GetController().Retake(slot)
		redirectHome(w, r)
	}
}

// SubmitHandler uploads both captured photos as a new snapshot.
func SubmitHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := manager.GetController().Submit(r.Context())
		if errors.Is(err, capture.ErrSubmitInFlight) {
			writeCaptureError(w, logger, err)
			return
		}
		// Incomplete and failed uploads are reported through notices.
		redirectHome(w, r)
	}
}

func writeCaptureError(w http.ResponseWriter, logger *logger.Logger, err error) {
	switch {
	case errors.Is(err, capture.ErrSessionBusy),
		errors.Is(err, capture.ErrSlotCaptured),
		errors.Is(err, capture.ErrNoSession),
		errors.Is(err, capture.ErrSubmitInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, capture.ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logger.Error("Capture request failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
