package protocol

import "github.com/udisondev/posetouch/internal/model"

// Version is sent in hello and welcome. A client with a different major version is refused.
const Version = 1

// Message types.
const (
	// client -> server
	MsgHello  = "hello"
	MsgPose   = "pose"
	MsgToggle = "toggle"
	MsgReset  = "reset"
	MsgConfig = "config"

	// server -> client
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgScore   = "score"
	MsgError   = "error"
)

// Error codes carried in Error.
const (
	CodeBadMessage = "bad_message"
	CodeBadVersion = "bad_version"
	CodeBadConfig  = "bad_config"
	CodeBadRegion  = "bad_region"
	CodeBusy       = "busy"
)

// Hello opens a session.
type Hello struct {
	V      int    `json:"v"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Pose carries the keypoints the browser estimated for one video frame.
// Coordinates are frame pixels in display space, already mirrored like the drawn video.
type Pose struct {
	Seq       uint64           `json:"seq"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Keypoints []model.Keypoint `json:"keypoints"`
}

// Toggle flips a grid cell. With Enabled set, the cell is forced to that state instead.
type Toggle struct {
	Cell    string `json:"cell"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Reset zeroes the score and restarts the round.
type Reset struct{}

// Config is a partial configuration update. Absent fields keep their current value.
type Config struct {
	IntervalSeconds *float64 `json:"intervalSeconds,omitempty"`
	BodyPart        string   `json:"bodyPart,omitempty"`
	ObjectShape     string   `json:"objectShape,omitempty"`
	ObjectSize      string   `json:"objectSize,omitempty"`
	KeypointSize    string   `json:"bodyKeypointSize,omitempty"`
	MinConfidence   *float64 `json:"minConfidence,omitempty"`
}

// Welcome acknowledges hello.
type Welcome struct {
	V         int        `json:"v"`
	SessionID string     `json:"sessionId"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	Regions   []string   `json:"regions"`
	Config    ConfigView `json:"config"`
	Best      int        `json:"best"`
}

// ConfigView is the full configuration as shown to clients.
type ConfigView struct {
	IntervalSeconds float64 `json:"intervalSeconds"`
	BodyPart        string  `json:"bodyPart"`
	ObjectShape     string  `json:"objectShape"`
	ObjectSize      string  `json:"objectSize"`
	KeypointSize    string  `json:"bodyKeypointSize"`
	MinConfidence   float64 `json:"minConfidence"`
}

// TargetView describes the active target.
type TargetView struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Shape     string  `json:"shape"`
	Size      string  `json:"size"`
	Region    string  `json:"region,omitempty"`
	Remaining float64 `json:"remaining"`
	Label     string  `json:"label"`
}

// State is the per-frame snapshot pushed to the client.
type State struct {
	Frame     uint64           `json:"frame"`
	Score     int              `json:"score"`
	Target    *TargetView      `json:"target,omitempty"`
	Keypoints []model.Keypoint `json:"keypoints"`
	Regions   []string         `json:"regions"`
	Spawned   int              `json:"spawned"`
	Touched   int              `json:"touched"`
	Expired   int              `json:"expired"`
}

// Score is sent whenever the score changes.
type Score struct {
	Score int `json:"score"`
}

// Error reports a rejected client message. The connection stays open.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewConfigView renders a configuration for the wire.
func NewConfigView(c model.Configuration) ConfigView {
	return ConfigView{
		IntervalSeconds: c.IntervalSeconds(),
		BodyPart:        string(c.BodyPart),
		ObjectShape:     string(c.ObjectShape),
		ObjectSize:      string(c.ObjectSize),
		KeypointSize:    string(c.KeypointSize),
		MinConfidence:   c.MinConfidence,
	}
}

// Apply merges the update into base. Unknown enum values are rejected with the model's
// sentinel errors.
func (u Config) Apply(base model.Configuration) (model.Configuration, error) {
	out := base
	if u.IntervalSeconds != nil {
		out.Interval = model.SecondsToDuration(*u.IntervalSeconds)
	}
	if u.BodyPart != "" {
		p, err := model.ParseBodyPart(u.BodyPart)
		if err != nil {
			return base, err
		}
		out.BodyPart = p
	}
	if u.ObjectShape != "" {
		s, err := model.ParseShape(u.ObjectShape)
		if err != nil {
			return base, err
		}
		out.ObjectShape = s
	}
	if u.ObjectSize != "" {
		s, err := model.ParseSize(u.ObjectSize)
		if err != nil {
			return base, err
		}
		out.ObjectSize = s
	}
	if u.KeypointSize != "" {
		s, err := model.ParseSize(u.KeypointSize)
		if err != nil {
			return base, err
		}
		out.KeypointSize = s
	}
	if u.MinConfidence != nil {
		out.MinConfidence = *u.MinConfidence
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
