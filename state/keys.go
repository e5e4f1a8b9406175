package state

// Keys of the shared state. Each output key has exactly one owning stage;
// KeyUserQuery is written by the session runner before the pipeline starts.
const (
	KeyUserQuery        = "user_query"
	KeyQueryParams      = "query_key_params"
	KeyRetrievedContent = "retrieved_content"
	KeyChartObjects     = "chart_objects"
	KeyQueryResponse    = "query_response"
)
