package models

const (
	DefaultCollection = "rag_docs"
	ContextSeparator  = "\n\n"
	NoQueryProvided   = "No query provided"
	PDFExtension      = ".pdf"
)

var (
	// QueryPromptTemplate is rendered by langchaingo prompts with the
	// retrieved context and the user question.
	QueryPromptTemplate = `You are a helpful assistant. Use the context below to answer the question.
    Context: {{.context}}
    Question: {{.question}}
    Answer:`
)
