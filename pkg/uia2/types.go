// Package uia2 provides the HTTP client for the on-device automation agent.
package uia2

// Response is the standard agent response envelope.
type Response struct {
	SessionID string      `json:"sessionId"`
	Value     interface{} `json:"value"`
}

// Capabilities for session creation.
type Capabilities struct {
	PlatformName string `json:"platformName,omitempty"`
	DeviceName   string `json:"deviceName,omitempty"`
}

// SessionRequest for creating a session.
type SessionRequest struct {
	Capabilities Capabilities `json:"capabilities"`
}

// PointModel represents coordinates.
type PointModel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ClickRequest for tap gestures.
type ClickRequest struct {
	Offset *PointModel `json:"offset,omitempty"`
}

// LongClickRequest for long press gestures.
type LongClickRequest struct {
	Offset   *PointModel `json:"offset,omitempty"`
	Duration int         `json:"duration,omitempty"` // milliseconds
}

// DragRequest for coordinate drag/swipe gestures.
type DragRequest struct {
	StartX int `json:"startX"`
	StartY int `json:"startY"`
	EndX   int `json:"endX"`
	EndY   int `json:"endY"`
	Speed  int `json:"speed,omitempty"`
}

// TouchRequest for raw touch down/move/up events.
type TouchRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AppRequest identifies an application package.
type AppRequest struct {
	AppID string `json:"appId"`
}

// CurrentApp is the agent's description of the foreground application.
type CurrentApp struct {
	Package  string `json:"package"`
	Activity string `json:"activity"`
	PID      int    `json:"pid"`
}
