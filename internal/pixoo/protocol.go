// Package pixoo pushes rendered caregiver frames to a Divoom Pixoo64.
//
// The Pixoo64 has a local HTTP API: POST http://<ip>/post with a JSON
// command. Frames are 64x64 RGB (3 bytes per pixel), base64 encoded.
package pixoo

import (
	"encoding/base64"
	"fmt"

	"github.com/jwulff/caregiver-go/internal/domain"
)

// Size is the edge length of the Pixoo64 panel in pixels.
const Size = 64

// maxPicID is the highest animation id the device accepts before its gif
// cache has to be reset.
const maxPicID = 1000

// Command names.
const (
	cmdSendGif       = "Draw/SendHttpGif"
	cmdResetGifID    = "Draw/ResetHttpGifId"
	cmdSetBrightness = "Channel/SetBrightness"
	cmdDeviceTime    = "Device/GetDeviceTime"
)

type command struct {
	Command string `json:"Command"`
}

// FrameCommand is a single-frame Draw/SendHttpGif command.
type FrameCommand struct {
	Command   string `json:"Command"`
	PicNum    int    `json:"PicNum"`
	PicWidth  int    `json:"PicWidth"`
	PicOffset int    `json:"PicOffset"`
	PicID     int    `json:"PicID"`
	PicSpeed  int    `json:"PicSpeed"`
	PicData   string `json:"PicData"`
}

type brightnessCommand struct {
	Command    string `json:"Command"`
	Brightness int    `json:"Brightness"`
}

// response is the envelope every command answers with.
type response struct {
	ErrorCode int `json:"error_code"`
}

// DeviceError is returned when the device answers with a non-zero error code.
type DeviceError struct {
	Command string
	Code    int
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("pixoo %s failed with error code %d", e.Command, e.Code)
}

// EncodeFrame encodes the frame pixels for the device. The frame must be
// Size x Size.
func EncodeFrame(frame *domain.Frame) (string, error) {
	if frame.Width != Size || frame.Height != Size {
		return "", fmt.Errorf("frame is %dx%d, display needs %dx%d", frame.Width, frame.Height, Size, Size)
	}
	return base64.StdEncoding.EncodeToString(frame.Pixels), nil
}

// NewFrameCommand builds the command that shows frame as animation picID.
func NewFrameCommand(frame *domain.Frame, picID int) (FrameCommand, error) {
	data, err := EncodeFrame(frame)
	if err != nil {
		return FrameCommand{}, err
	}
	return FrameCommand{
		Command:   cmdSendGif,
		PicNum:    1,
		PicWidth:  Size,
		PicOffset: 0,
		PicID:     picID,
		PicSpeed:  1000,
		PicData:   data,
	}, nil
}

func newBrightnessCommand(brightness int) brightnessCommand {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}
	return brightnessCommand{Command: cmdSetBrightness, Brightness: brightness}
}
