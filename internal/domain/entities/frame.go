package entities

// FrameMessage is the interaction context of a frame POST
type FrameMessage struct {
	RequesterFID int64
	URL          string
	ButtonIndex  int
	State        string
	Verified     bool // Signature checked by a hub
}

// FrameState is carried between frame interactions
type FrameState struct {
	LastFID string `json:"lastFid,omitempty"`
}
