package model

import "time"

// AnswerRecord is one generated answer persisted for auditing. Records are
// published to RabbitMQ by the request path and written to MySQL by the
// answer-log worker.
type AnswerRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:128;not null;index" json:"session_id"`
	Kind      string    `gorm:"size:16;not null" json:"kind"` // ask | summarize | compare
	Question  string    `gorm:"type:text" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
