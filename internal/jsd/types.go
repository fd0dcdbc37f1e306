package jsd

// Request is the subset of a customer request the bridge reads back.
type Request struct {
	IssueID       string
	IssueKey      string
	ServiceDeskID string
	RequestTypeID string
	// Fields holds requestFieldValues keyed by field id.
	Fields        map[string]any
	CurrentStatus string
}

// Field returns a request field value.
func (r *Request) Field(id string) any {
	if r == nil || r.Fields == nil {
		return nil
	}
	return r.Fields[id]
}

// PriorityName returns the display name of the priority field.
func (r *Request) PriorityName() string {
	obj, _ := r.Field("priority").(map[string]any)
	name, _ := obj["name"].(string)
	return name
}

// IssueAttachment is one file attached to an issue.
type IssueAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type requestResponse struct {
	IssueID            string `json:"issueId"`
	IssueKey           string `json:"issueKey"`
	RequestTypeID      string `json:"requestTypeId"`
	ServiceDeskID      string `json:"serviceDeskId"`
	RequestFieldValues []struct {
		FieldID string `json:"fieldId"`
		Value   any    `json:"value"`
	} `json:"requestFieldValues"`
	CurrentStatus struct {
		Status string `json:"status"`
	} `json:"currentStatus"`
}

func (r requestResponse) toRequest() *Request {
	req := &Request{
		IssueID:       r.IssueID,
		IssueKey:      r.IssueKey,
		RequestTypeID: r.RequestTypeID,
		ServiceDeskID: r.ServiceDeskID,
		Fields:        make(map[string]any, len(r.RequestFieldValues)),
		CurrentStatus: r.CurrentStatus.Status,
	}
	for _, fv := range r.RequestFieldValues {
		req.Fields[fv.FieldID] = fv.Value
	}
	return req
}

type createRequestResponse struct {
	IssueKey string `json:"issueKey"`
}

type issueAttachmentsResponse struct {
	Fields struct {
		Attachment []IssueAttachment `json:"attachment"`
	} `json:"fields"`
}

type temporaryAttachmentsResponse struct {
	TemporaryAttachments []struct {
		TemporaryAttachmentID string `json:"temporaryAttachmentId"`
		FileName              string `json:"fileName"`
	} `json:"temporaryAttachments"`
}
