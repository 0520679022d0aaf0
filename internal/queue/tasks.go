package queue

const TypeDocumentExtract = "document:extract"

type DocumentExtractPayload struct {
	JobID string `json:"job_id"`
}
