package model

import (
	"errors"
	"fmt"
	"strings"
)

// Slot names one of the two photo positions of a snapshot.
type Slot string

const (
	SlotFront Slot = "front"
	SlotTop   Slot = "top"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotFront, SlotTop}

// MaxPhotoSize is the largest payload accepted per photo.
const MaxPhotoSize = 5 * 1024 * 1024

// AcceptedContentTypes lists the photo encodings the backend accepts.
var AcceptedContentTypes = []string{"image/jpeg", "image/png"}

var (
	ErrUnknownSlot     = errors.New("unknown photo slot")
	ErrMissingPhoto    = errors.New("both photos are required")
	ErrPhotoTooLarge   = errors.New("photo exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported photo type")
)

// ParseSlot accepts "front" or "top".
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotFront:
		return SlotFront, nil
	case SlotTop:
		return SlotTop, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// Label is the human-readable slot name.
func (s Slot) Label() string {
	switch s {
	case SlotFront:
		return "Front"
	case SlotTop:
		return "Top"
	}
	return string(s)
}

// FormField is the multipart part name the backend expects for this slot.
func (s Slot) FormField() string {
	return string(s) + "Photo"
}

// Photo is a captured image held in memory until submission or retake.
type Photo struct {
	Slot        Slot
	Data        []byte
	ContentType string
	Filename    string
	PreviewID   string
	PreviewURL  string
}

// CreateRequest is the pair of photos sent to create a snapshot.
type CreateRequest struct {
	Front Photo
	Top   Photo
}

// Photos returns the request's photos in slot order.
func (r CreateRequest) Photos() []Photo {
	return []Photo{r.Front, r.Top}
}

// Validate checks presence, size and encoding of both photos.
func (r CreateRequest) Validate() error {
	for _, p := range r.Photos() {
		if len(p.Data) == 0 {
			return ErrMissingPhoto
		}
		if len(p.Data) > MaxPhotoSize {
			return fmt.Errorf("%w: %s photo is %d bytes", ErrPhotoTooLarge, p.Slot, len(p.Data))
		}
		if !acceptedType(p.ContentType) {
			return fmt.Errorf("%w: %s photo is %q", ErrUnsupportedType, p.Slot, p.ContentType)
		}
	}
	return nil
}

func acceptedType(contentType string) bool {
	for _, t := range AcceptedContentTypes {
		if contentType == t {
			return true
		}
	}
	return false
}
