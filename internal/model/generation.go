package model

import "time"

// Generation records one call to the suggestion generator.
//
// The suggestions themselves are never stored; only metadata for audit and
// analytics. The accepted counts start at zero and are written when the user
// accepts suggestions from this generation.
type Generation struct {
	ID                    int64     `json:"id"`
	UserID                string    `json:"-"`
	Model                 string    `json:"model"`
	GeneratedCount        int       `json:"generated_count"`
	SourceTextHash        string    `json:"source_text_hash"`
	SourceTextLength      int       `json:"source_text_length"`
	DurationMS            int64     `json:"generation_duration"`
	AcceptedUneditedCount int       `json:"accepted_unedited_count"`
	AcceptedEditedCount   int       `json:"accepted_edited_count"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Accepted reports whether any suggestion of this generation has been accepted.
func (g *Generation) Accepted() bool {
	return g.AcceptedUneditedCount+g.AcceptedEditedCount > 0
}

// GenerationErrorLog is an append-only diagnostic record of a failed generation.
type GenerationErrorLog struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"-"`
	Model            string    `json:"model"`
	SourceTextHash   string    `json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	ErrorCode        string    `json:"error_code"`
	ErrorMessage     string    `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}
