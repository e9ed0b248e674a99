package note

import "time"

// Note is a free-text dated note owned by a user. Date is the calendar
// date the user picked (YYYY-MM-DD); CreatedAt is server-assigned and
// only used for fetch ordering.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Text      string    `json:"note_text"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNoteInput holds the fields required to insert a note.
type CreateNoteInput struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Text   string `json:"note_text"`
}
