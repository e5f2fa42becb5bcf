package models

import (
	"time"
	"unicode/utf8"
)

// Attachment kinds. Legacy records that stored a bare URL string are
// resolved into the url kind at the store boundary; nothing downstream
// ever sees an untagged value.
const (
	AttachmentURL      = "url"
	AttachmentEmbedded = "embedded"
)

type Attachment struct {
	Kind     string `json:"kind"`
	Data     string `json:"data"`
	Filename string `json:"filename,omitempty"`
}

// Letter is one record of the letters collection. LoggedAt is the only
// field the unlock flow mutates; everything else belongs to the admin.
type Letter struct {
	ID          string       `json:"id"`
	Phone       string       `json:"phone"`
	Title       string       `json:"title"`
	Context     string       `json:"context"`
	ExtraNote   string       `json:"extraNote"`
	Attachments []Attachment `json:"attachments"`
	LoggedAt    *time.Time   `json:"loggedAt"`
	CreatedAt   time.Time    `json:"createdAt"`
	Deleted     bool         `json:"-"`
}

// LetterView is the unlocked record returned by the post-check endpoint.
// It never carries LoggedAt or the delete flag.
type LetterView struct {
	ID          string       `json:"id"`
	Phone       string       `json:"phone"`
	Title       string       `json:"title"`
	Context     string       `json:"context"`
	ExtraNote   string       `json:"extraNote"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// LetterPreview is the public gallery entry: title plus a truncated
// slice of the body, no phone and no full content.
type LetterPreview struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
}

const previewRunes = 100

func (l *Letter) View() LetterView {
	attachments := l.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	return LetterView{
		ID:          l.ID,
		Phone:       l.Phone,
		Title:       l.Title,
		Context:     l.Context,
		ExtraNote:   l.ExtraNote,
		Attachments: attachments,
		CreatedAt:   l.CreatedAt,
	}
}

func (l *Letter) Preview() LetterPreview {
	preview := l.Context
	if utf8.RuneCountInString(preview) > previewRunes {
		runes := []rune(preview)
		preview = string(runes[:previewRunes]) + "..."
	}
	return LetterPreview{
		ID:        l.ID,
		Title:     l.Title,
		Preview:   preview,
		CreatedAt: l.CreatedAt,
	}
}
