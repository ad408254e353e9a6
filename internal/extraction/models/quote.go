package models

import (
	"strings"
	"time"

	id "paperview/pkg/domain"
	dErrors "paperview/pkg/domain-errors"
)

// Quote is a tagged text fragment captured during an extraction. Its
// lifecycle belongs to the owning Extraction; the only mutation it sees
// afterwards is tag repointing during a merge.
//
// Invariants:
//   - Text is non-empty
//   - The tag set holds each tag id at most once
type Quote struct {
	ID           id.QuoteID
	ExtractionID id.ExtractionID
	Text         string
	Location     QuoteLocation
	ResearcherID id.UserID
	TagIDs       []id.TagID
	CreatedAt    time.Time
}

func NewQuote(quoteID id.QuoteID, extractionID id.ExtractionID, text string, location QuoteLocation, researcher id.UserID, now time.Time) (*Quote, error) {
	if strings.TrimSpace(text) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "quote text cannot be empty")
	}
	return &Quote{
		ID:           quoteID,
		ExtractionID: extractionID,
		Text:         text,
		Location:     location,
		ResearcherID: researcher,
		CreatedAt:    now,
	}, nil
}

// HasTag reports whether the quote already references the tag.
func (q *Quote) HasTag(tagID id.TagID) bool {
	for _, existing := range q.TagIDs {
		if existing == tagID {
			return true
		}
	}
	return false
}

// AddTag associates a tag with the quote; duplicates are ignored.
func (q *Quote) AddTag(tagID id.TagID) {
	if q.HasTag(tagID) {
		return
	}
	q.TagIDs = append(q.TagIDs, tagID)
}

// ReplaceTag swaps old for replacement during a merge. Idempotent on the tag
// set: if the quote already holds both, the pair collapses to just the
// replacement. Returns whether the quote changed.
func (q *Quote) ReplaceTag(old, replacement id.TagID) bool {
	if !q.HasTag(old) {
		return false
	}
	kept := q.TagIDs[:0]
	for _, existing := range q.TagIDs {
		if existing != old {
			kept = append(kept, existing)
		}
	}
	q.TagIDs = kept
	q.AddTag(replacement)
	return true
}
