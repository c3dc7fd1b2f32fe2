package capture

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var ErrNoFrame = errors.New("camera returned no frame")

// GocvDevice opens a local video capture device by index.
type GocvDevice struct {
	ID int
}

func (d GocvDevice) Open(ctx context.Context) (Camera, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := gocv.OpenVideoCapture(d.ID)
	if err != nil {
		return nil, fmt.Errorf("open video capture %d: %w", d.ID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video capture %d did not open", d.ID)
	}
	return &gocvCamera{vc: vc, mat: gocv.NewMat()}, nil
}

// gocvCamera is not safe for concurrent use; the controller serializes access.
type gocvCamera struct {
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

func (c *gocvCamera) Frame() ([]byte, error) {
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.mat)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	frame := make([]byte, len(buf.GetBytes()))
	copy(frame, buf.GetBytes())
	return frame, nil
}

func (c *gocvCamera) Close() error {
	c.mat.Close()
	return c.vc.Close()
}
