package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID        string           `json:"documentId"`
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	FileName          string           `json:"fileName,omitempty"`
	MimeType          string           `json:"mimeType,omitempty"`
	SizeBytes         int64            `json:"sizeBytes,omitempty"`
	PublishedAt       time.Time        `json:"publishedAt"`
	CreatedBy         string           `json:"createdBy"`
	RequiredReaders   []string         `json:"requiredReaders"`
	ConfirmedReaders  []string         `json:"confirmedReaders"`
	PendingReaders    []string         `json:"pendingReaders"`
	HasPendingReaders bool             `json:"hasPendingReaders"`
	IsReadByMe        bool             `json:"isReadByMe"`
	Summary           *SummaryResponse `json:"summary,omitempty"`
}

// SummaryResponse is the outward-facing view of a summary attempt.
type SummaryResponse struct {
	Status      string     `json:"status"`
	Text        string     `json:"text"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

func toResponse(doc Document, viewerID string) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:        doc.ID,
		Title:             doc.Title,
		Description:       doc.Description,
		FileName:          doc.FileName,
		MimeType:          doc.MimeType,
		SizeBytes:         doc.SizeBytes,
		PublishedAt:       doc.PublishedAt,
		CreatedBy:         doc.CreatedBy,
		RequiredReaders:   emptyIfNil(doc.RequiredReaders),
		ConfirmedReaders:  emptyIfNil(doc.ConfirmedReaders),
		PendingReaders:    emptyIfNil(doc.PendingReaders()),
		HasPendingReaders: doc.HasPendingReaders,
		IsReadByMe:        doc.IsReadBy(viewerID),
	}
	if doc.Summary.Kind != SummaryNone {
		resp.Summary = &SummaryResponse{
			Status:      string(doc.Summary.Kind),
			Text:        doc.Summary.DisplayText(),
			GeneratedAt: doc.Summary.GeneratedAt,
		}
	}
	return resp
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
