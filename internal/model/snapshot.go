package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the review state of a snapshot.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrUnknownStatus    = errors.New("unknown snapshot status")
	ErrFeedbackRequired = errors.New("rejection requires feedback")
	ErrNoStatusChange   = errors.New("no status change given")
)

// ParseStatus accepts only the three wire values.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Snapshot is a paired front/top photo submission as stored by the backend.
type Snapshot struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	FrontPhoto string    `json:"frontPhoto"`
	TopPhoto   string    `json:"topPhoto"`
	Status     Status    `json:"status"`
	Feedback   string    `json:"feedback,omitempty"`
}

// Layouts accepted for createdAt, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a wire timestamp into a time value.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON parses createdAt leniently; the backend is not guaranteed to send
// RFC 3339. Status must be one of the three known values.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type Alias Snapshot
	aux := &struct {
		CreatedAt string `json:"createdAt"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	s.CreatedAt = time.Time{}
	if aux.CreatedAt != "" {
		createdAt, err := ParseTimestamp(aux.CreatedAt)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
		s.CreatedAt = createdAt
	}
	status, err := ParseStatus(string(s.Status))
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	s.Status = status
	return nil
}

// StatusChange is a reviewer decision. Only Approval and the value returned by
// NewRejection implement it, so a rejection without feedback or an approval
// with feedback cannot be expressed.
type StatusChange interface {
	Status() Status
	Feedback() string
	isStatusChange()
}

// Approval marks a snapshot approved.
type Approval struct{}

func (Approval) Status() Status   { return StatusApproved }
func (Approval) Feedback() string { return "" }
func (Approval) isStatusChange()  {}

// rejection marks a snapshot rejected with a reason for the submitter.
type rejection struct {
	feedback string
}

// NewRejection requires non-blank feedback.
func NewRejection(feedback string) (StatusChange, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, ErrFeedbackRequired
	}
	return rejection{feedback: feedback}, nil
}

func (rejection) Status() Status     { return StatusRejected }
func (r rejection) Feedback() string { return r.feedback }
func (rejection) isStatusChange()    {}

// ValidateStatusChange checks a decision before it is sent.
func ValidateStatusChange(change StatusChange) error {
	if change == nil {
		return ErrNoStatusChange
	}
	if change.Status() == StatusRejected && strings.TrimSpace(change.Feedback()) == "" {
		return ErrFeedbackRequired
	}
	return nil
}

// DefaultRejectionFeedback prefills the reject form.
const DefaultRejectionFeedback = "Photos do not meet requirements"

// StatusUpdate is the wire body of a status change.
type StatusUpdate struct {
	Status   Status `json:"status"`
	Feedback string `json:"feedback,omitempty"`
}

// NewStatusUpdate flattens a StatusChange for the wire.
func NewStatusUpdate(change StatusChange) StatusUpdate {
	return StatusUpdate{Status: change.Status(), Feedback: change.Feedback()}
}
