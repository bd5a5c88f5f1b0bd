package documents

import "time"

// Document is an internal document whose required readers must confirm
// having read it.
type Document struct {
	ID                string
	Title             string
	Description       string
	FileName          string
	MimeType          string
	SizeBytes         int64
	StorageProvider   string
	StorageKey        string
	PublishedAt       time.Time
	CreatedBy         string
	RequiredReaders   []string
	ConfirmedReaders  []string
	Summary           SummaryResult
	HasPendingReaders bool
}

// HasFile reports whether a file is attached to the document.
func (d Document) HasFile() bool {
	return d.StorageKey != ""
}

// PendingReaders returns requiredReaders minus confirmedReaders. It is
// always recomputed; only HasPendingReaders is stored.
func (d Document) PendingReaders() []string {
	confirmed := make(map[string]struct{}, len(d.ConfirmedReaders))
	for _, id := range d.ConfirmedReaders {
		confirmed[id] = struct{}{}
	}
	pending := make([]string, 0, len(d.RequiredReaders))
	for _, id := range d.RequiredReaders {
		if _, ok := confirmed[id]; !ok {
			pending = append(pending, id)
		}
	}
	return pending
}

// IsReadBy reports whether the given user has confirmed reading.
func (d Document) IsReadBy(userID string) bool {
	for _, id := range d.ConfirmedReaders {
		if id == userID {
			return true
		}
	}
	return false
}

// SummaryKind discriminates the states of a document summary. The original
// data model overloaded a single text field for both genuine summaries and
// error strings; the tagged kind keeps them apart.
type SummaryKind string

const (
	SummaryNone          SummaryKind = ""
	SummarySuccess       SummaryKind = "success"
	SummaryNoAttachment  SummaryKind = "no_attachment"
	SummaryDecodeError   SummaryKind = "decode_error"
	SummaryConfigError   SummaryKind = "config_error"
	SummaryProviderError SummaryKind = "provider_error"
	SummaryEmpty         SummaryKind = "empty"
)

// SummaryResult is the outcome of a summary generation attempt. After the
// workflow has run once for a document with a file, Kind is never
// SummaryNone again.
type SummaryResult struct {
	Kind        SummaryKind
	Text        string // generated summary, only for SummarySuccess
	Detail      string // raw error detail for decode/provider failures
	GeneratedAt *time.Time
}

// DisplayText renders the user-visible summary field: the generated text on
// success, an explanatory status string otherwise.
func (r SummaryResult) DisplayText() string {
	switch r.Kind {
	case SummarySuccess:
		return r.Text
	case SummaryNoAttachment:
		return "There is no attached file to summarize."
	case SummaryDecodeError:
		return "Error processing the file for the summary."
	case SummaryConfigError:
		return "Summarizer API configuration error."
	case SummaryProviderError:
		return "Error generating the AI summary: " + r.Detail
	case SummaryEmpty:
		return "An automatic summary could not be generated for this document."
	default:
		return ""
	}
}
