package mailbox

// Message is one mailbox API message, newest first in list responses.
type Message struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Subject     string       `json:"subject"`
	BodyHTML    string       `json:"bodyHtml"`
	BodyText    string       `json:"bodyText"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment content arrives base64-encoded.
type Attachment struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Content  string `json:"content"`
}

type listResponse struct {
	Messages []Message `json:"messages"`
}
