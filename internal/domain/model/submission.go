package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Submission is one user upload relayed to the moderators.
type Submission struct {
	ID        string
	ChatID    int64
	Kind      MediaKind
	FileID    string
	CreatedAt time.Time
}

func NewSubmission(chatID int64, media InboundMedia) *Submission {
	now := time.Now().UTC()
	return &Submission{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		ChatID:    chatID,
		Kind:      media.Kind,
		FileID:    media.FileID,
		CreatedAt: now,
	}
}

// ArchiveName is the file name used when the submission is stored on disk.
func (s *Submission) ArchiveName() string {
	return s.ID + s.Kind.Extension()
}
