package draft

import (
	"time"

	"github.com/sequenceit/proposaldesk/pkg/proposal"
)

// Draft is a proposal saved by a user. Drafts are unique per user and project
// title: saving a document whose title already exists overwrites that draft.
type Draft struct {
	Id            string
	DocumentId    string
	ProjectTitle  string
	DocumentOwner string
	IssueDate     string
	StartingDate  string
	HandoverDate  string
	Document      proposal.Document
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// fromDocument copies the searchable header fields out of doc.
func fromDocument(doc proposal.Document) Draft {
	return Draft{
		DocumentId:    doc.DocumentId,
		ProjectTitle:  doc.Title(),
		DocumentOwner: doc.DocumentOwner,
		IssueDate:     doc.IssueDate,
		StartingDate:  doc.StartingDate,
		HandoverDate:  doc.HandoverDate,
		Document:      doc,
	}
}
