package approval

type RejectDTO struct {
	Reason string `json:"reason"`
}

type PendingResponse struct {
	Items []QueueItem `json:"items"`
}

type AuditResponse struct {
	Entries []*AuditEntry `json:"entries"`
}
