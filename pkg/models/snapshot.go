package models

import "time"

// SnapshotRequest is the JSON body posted by the kiosk page
type SnapshotRequest struct {
	Image    string `json:"image"`              // data URI or bare base64
	Title    string `json:"title,omitempty"`    // defaults per language
	Subtitle string `json:"subtitle,omitempty"` // may be empty
	SimType  string `json:"sim_type,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

// SnapshotResult is returned when a postcard has been saved
type SnapshotResult struct {
	OK          bool   `json:"ok"`
	Filename    string `json:"filename"`
	PDFFilename string `json:"pdf_filename,omitempty"`
	Format      string `json:"format"`
	Tier        string `json:"tier"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// PostcardEvent is published after a postcard file has been written
type PostcardEvent struct {
	Type         string    `json:"type"`
	Filename     string    `json:"filename"`
	Format       string    `json:"format"`
	Tier         string    `json:"tier"`
	SimType      string    `json:"sim_type"`
	Lang         string    `json:"lang"`
	Title        string    `json:"title"`
	SourceWidth  int       `json:"source_width"`
	SourceHeight int       `json:"source_height"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostcardEventType is the Type of every PostcardEvent
const PostcardEventType = "postcard_saved"
