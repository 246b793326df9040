package document

import "time"

const (
	SignaturePending  = "PENDING"
	SignatureSigned   = "SIGNED"
	SignatureDeclined = "DECLINED"
)

type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	Title       string    `json:"title"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Share struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"documentId"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	SharedBy     string     `json:"sharedBy"`
	SharedAt     time.Time  `json:"sharedAt"`
	ViewedAt     *time.Time `json:"viewedAt,omitempty"`
}

// SignatureRequest asks one employee to sign one document by a deadline.
type SignatureRequest struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"documentId"`
	Title        string     `json:"title,omitempty"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	RequestedBy  string     `json:"requestedBy"`
	Status       string     `json:"status"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	DeclineNote  string     `json:"declineNote,omitempty"`
	Signature    string     `json:"signature,omitempty"`
	SignedIP     string     `json:"signedIp,omitempty"`
	SignedAgent  string     `json:"signedUserAgent,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Resolution is the outcome of a signature request together with the
// client details captured at signing time.
type Resolution struct {
	Decision  string
	Note      string
	Signature string
	ClientIP  string
	UserAgent string
}

// SharePointItem is one entry in a remote document library listing.
type SharePointItem struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	IsFolder bool       `json:"isFolder"`
	Size     int64      `json:"size,omitempty"`
	Modified *time.Time `json:"modified,omitempty"`
}
