package domain

// DefaultRAGSystemPrompt frames the assistant when no system prompt is
// configured or supplied by the caller.
const DefaultRAGSystemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
	"Be concise, accurate, and helpful. If the context doesn't contain enough information " +
	"to answer the question, clearly state that."

// NoContextAnswer is returned without calling the LLM when retrieval
// comes back empty.
const NoContextAnswer = "I couldn't find any relevant documents to answer your question."

// DefaultTopK is the number of context documents retrieved for a RAG query
const DefaultTopK = 5

// RAGOptions configures a RAG query.
type RAGOptions struct {
	TopK         int     `json:"top_k"`
	Similarity   float64 `json:"similarity"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	GroupID      *int64  `json:"group_id,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Model        string  `json:"model,omitempty"`
}

// RAGAnswer is the non-streaming RAG response: the generated answer plus
// the retrieved sources it was grounded on.
type RAGAnswer struct {
	Answer  string      `json:"answer"`
	Sources []SearchHit `json:"sources"`
}

// CompletionRequest is what the RAG orchestrator hands to the LLM
// gateway: a question and the retrieved context documents.
type CompletionRequest struct {
	SystemPrompt string
	Query        string
	Contexts     []SearchHit
	Temperature  float64
	MaxTokens    int
	Model        string
}

// StreamChunk is one event on a streaming completion channel. Exactly one
// terminal chunk is sent: either Done or a non-nil Err.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}
