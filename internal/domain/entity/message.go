package entity

import "github.com/google/uuid"

// VideoAnalysisMessage is the inbound message from the video.analysis queue.
type VideoAnalysisMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	FileSize  int64     `json:"file_size"`
	UserEmail string    `json:"user_email"`
}

// VideoStatusMessage is the outbound message published to the video.status queue.
type VideoStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoKey     string    `json:"video_key"`
	ReportKey    string    `json:"report_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	ObjectCount  int       `json:"object_count,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
