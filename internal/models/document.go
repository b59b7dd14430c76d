package models

// SourceKind identifies where a piece of medical text came from.
type SourceKind string

const (
	SourceText  SourceKind = "text"
	SourcePDF   SourceKind = "pdf"
	SourceImage SourceKind = "image"
)

// Upload is a file handed in by the user.
type Upload struct {
	Name string
	Data []byte
}

// Size returns the upload size in bytes.
func (u *Upload) Size() int {
	if u == nil {
		return 0
	}
	return len(u.Data)
}

type Document struct {
	Source    SourceKind
	Name      string
	Content   string
	Truncated bool
	Method    string
	Warnings  []string
	Metadata  map[string]interface{}
}

type Simplification struct {
	Document
	Simplified string
	Model      string
}
