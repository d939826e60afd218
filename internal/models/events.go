package models

// StorageEvent mirrors the object fields of a storage "object finalized"
// notification. Extra fields in the payload are ignored.
type StorageEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

type QueryRequest struct {
	Query string `json:"query"`
}

type QueryResponse struct {
	Answer      string `json:"answer"`
	ContextUsed string `json:"context_used"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
