package models

import (
	"time"

	"github.com/google/uuid"
)

// PracticeSession is one recorded answer. Rows are written once and never
// updated; the owner may delete them.
type PracticeSession struct {
	ID              uuid.UUID `json:"id" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
	UserID          int64     `json:"user_id"`
	QuestionText    string    `json:"question_text" example:"Tell me about a time you failed."`
	Transcript      string    `json:"transcript"`
	WPM             int       `json:"wpm" example:"142"`
	FillerWordCount int       `json:"filler_word_count" example:"3"`
	FoundFillers    []string  `json:"found_fillers"`
	Feedback        string    `json:"feedback"`
	Improvements    string    `json:"improvements"`
	CreatedAt       time.Time `json:"created_at"`
}

// AuthSession is a refresh-token session for a signed-in device.
type AuthSession struct {
	ID        uuid.UUID `json:"id" example:"a1b2c3d4-e5f6-7890-1234-567890abcdef"`
	UserAgent string    `json:"user_agent" example:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) ..."`
	ClientIP  string    `json:"client_ip" example:"198.51.100.10"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
