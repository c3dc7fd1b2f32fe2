// Package view builds render models and HTML for the capture page and snapshot list.
package view

import (
	"html/template"

	"photocapture/internal/config"
	"photocapture/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DateLayout     = "2006-01-02"
	PlaceholderURL = "/static/placeholder.svg"

	SectionPending  = "Pending Review"
	SectionPrevious = "Previous Snapshots"
	SectionAll      = "Your Photos"
)

var feedbackPolicy = bluemonday.StrictPolicy()

type ImageView struct {
	Label string
	Alt   string
	URL   string
}

type ItemView struct {
	ID          string
	Created     string
	Status      model.Status
	StatusClass string
	// Feedback is sanitized text, empty when the snapshot has none.
	Feedback template.HTML
	Photos   []ImageView
	// CanReview is set when review controls are enabled and the snapshot is pending.
	CanReview       bool
	DefaultFeedback string
	Deleting        bool
	Updating        bool
}

type Section struct {
	Title string
	Items []ItemView
}

type ListView struct {
	Loading  bool
	Empty    bool
	Sections []Section
}

// ListOptions carries the display policy and in-flight flags for a list render.
type ListOptions struct {
	Layout        string
	ReviewEnabled bool
	ImageURL      func(ref string) string
	Deleting      bool
	Updating      bool
}

// BuildList maps snapshots to a list render model. loading wins over an empty list.
func BuildList(snapshots []model.Snapshot, loading bool, opts ListOptions) ListView {
	if loading {
		return ListView{Loading: true}
	}
	if len(snapshots) == 0 {
		return ListView{Empty: true}
	}

	if opts.Layout == config.LayoutFlat {
		items := make([]ItemView, 0, len(snapshots))
		for _, s := range snapshots {
			items = append(items, NewItem(s, opts))
		}
		return ListView{Sections: []Section{{Title: SectionAll, Items: items}}}
	}

	var pending, previous []ItemView
	for _, s := range snapshots {
		if s.Status == model.StatusPending {
			pending = append(pending, NewItem(s, opts))
		} else {
			previous = append(previous, NewItem(s, opts))
		}
	}

	var view ListView
	if len(pending) > 0 {
		view.Sections = append(view.Sections, Section{Title: SectionPending, Items: pending})
	}
	if len(previous) > 0 {
		view.Sections = append(view.Sections, Section{Title: SectionPrevious, Items: previous})
	}
	return view
}

func NewItem(s model.Snapshot, opts ListOptions) ItemView {
	imageURL := opts.ImageURL
	if imageURL == nil {
		imageURL = func(ref string) string { return ref }
	}

	item := ItemView{
		ID:          s.ID,
		Status:      s.Status,
		StatusClass: StatusClass(s.Status),
		Photos: []ImageView{
			{Label: "Front View", Alt: "Front view", URL: imageURL(s.FrontPhoto)},
			{Label: "Top View", Alt: "Top view", URL: imageURL(s.TopPhoto)},
		},
		CanReview:       opts.ReviewEnabled && s.Status == model.StatusPending,
		DefaultFeedback: model.DefaultRejectionFeedback,
		Deleting:        opts.Deleting,
		Updating:        opts.Updating,
	}
	if !s.CreatedAt.IsZero() {
		item.Created = s.CreatedAt.Format(DateLayout)
	}
	if s.Feedback != "" {
		item.Feedback = template.HTML(feedbackPolicy.Sanitize(s.Feedback))
	}
	return item
}

// StatusClass is the color class for a status.
func StatusClass(status model.Status) string {
	switch status {
	case model.StatusApproved:
		return "status-green"
	case model.StatusRejected:
		return "status-red"
	default:
		return "status-yellow"
	}
}
