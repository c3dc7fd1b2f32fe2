package handler

import (
	"context"
	"errors"
	"net/http"

	"photocapture/internal/config"
	"photocapture/internal/logger"
	"photocapture/internal/model"
	"photocapture/internal/service"
	"photocapture/internal/view"

	"github.com/gorilla/mux"
)

const deleteConfirmMessage = "Are you sure you want to delete this snapshot?"

// ImageURLFunc resolves a stored photo reference to a fetchable URL.
type ImageURLFunc func(ref string) string

func listOptions(manager *service.Manager, cfg *config.Config, imageURL ImageURLFunc) view.ListOptions {
	svc := manager.GetSnapshotService()
	return view.ListOptions{
		Layout:        cfg.ListLayout,
		ReviewEnabled: cfg.ReviewEnabled,
		ImageURL:      imageURL,
		Deleting:      svc.IsDeleting(),
		Updating:      svc.IsUpdating(),
	}
}

// IndexHandler renders the capture panel and the snapshot list. With nothing
// cached yet the list renders its loading state and a background fetch starts.
func IndexHandler(manager *service.Manager, renderer *view.Renderer, cfg *config.Config, imageURL ImageURLFunc, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc := manager.GetSnapshotService()
		ctx := r.Context()

		snaps, fresh, found := svc.Peek(ctx)
		if found && !fresh {
			if latest, err := svc.List(ctx); err != nil {
				logger.Warning("Showing stale snapshots: %v", err)
			} else {
				snaps = latest
			}
		}
		if !found {
			svc.Prefetch(context.WithoutCancel(ctx))
		}

		page := view.PageView{
			Capture: manager.GetController().State(),
			List:    view.BuildList(snaps, !found, listOptions(manager, cfg, imageURL)),
			Notices: manager.GetNoticeBoard().Drain(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := renderer.Page(w, page); err != nil {
			logger.Error("Error rendering page: %v", err)
		}
	}
}

// ListFragmentHandler renders the snapshot list, waiting for the fetch.
func ListFragmentHandler(manager *service.Manager, renderer *view.Renderer, cfg *config.Config, imageURL ImageURLFunc, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps, err := manager.GetSnapshotService().List(r.Context())
		if err != nil {
			logger.Error("Error listing snapshots: %v", err)
			http.Error(w, "Failed to load snapshots", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := renderer.List(w, view.BuildList(snaps, false, listOptions(manager, cfg, imageURL))); err != nil {
			logger.Error("Error rendering snapshot list: %v", err)
		}
	}
}

// DeleteSnapshotHandler deletes a snapshot once the form carries confirm=yes;
// otherwise it asks for confirmation.
func DeleteSnapshotHandler(manager *service.Manager, renderer *view.Renderer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if r.FormValue("confirm") != "yes" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			err := renderer.Confirm(w, view.ConfirmView{
				Message: deleteConfirmMessage,
				Action:  r.URL.Path,
			})
			if err != nil {
				logger.Error("Error rendering confirmation: %v", err)
			}
			return
		}

		if err := manager.GetSnapshotService().Delete(r.Context(), id); err != nil {
			logger.Error("Failed to delete snapshot %s: %v", id, err)
			manager.GetNoticeBoard().Error("Failed to delete snapshot")
		} else {
			logger.Info("Deleted snapshot %s", id)
		}
		redirectHome(w, r)
	}
}

// UpdateStatusHandler approves or rejects a pending snapshot. It only exists
// when review is enabled.
func UpdateStatusHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.ReviewEnabled {
			http.NotFound(w, r)
			return
		}
		id := mux.Vars(r)["id"]

		change, err := statusChangeFromForm(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, err := manager.GetSnapshotService().UpdateStatus(r.Context(), id, change); err != nil {
			logger.Error("Failed to update status of snapshot %s: %v", id, err)
			manager.GetNoticeBoard().Error("Failed to update status")
		}
		redirectHome(w, r)
	}
}

var errPendingTarget = errors.New("status can only be changed to approved or rejected")

func statusChangeFromForm(r *http.Request) (model.StatusChange, error) {
	status, err := model.ParseStatus(r.FormValue("status"))
	if err != nil {
		return nil, err
	}
	switch status {
	case model.StatusApproved:
		return model.Approval{}, nil
	case model.StatusRejected:
		return model.NewRejection(r.FormValue("feedback"))
	default:
		return nil, errPendingTarget
	}
}
