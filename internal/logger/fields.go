package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSessionID is the caller session used for presence tracking
	FieldSessionID = "session_id"

	// FieldPromptID is the prompt a drawing is evaluated against
	FieldPromptID = "prompt_id"

	// FieldEvaluationID identifies one checkDrawing evaluation
	FieldEvaluationID = "evaluation_id"

	// FieldPlayerName is the leaderboard player name
	FieldPlayerName = "player_name"

	// FieldGame is the leaderboard game key
	FieldGame = "game"
)

// Metric fields, used on Entry for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldScore is a computed evaluation or leaderboard score
	FieldScore = "score"

	// FieldStage is the evaluation pipeline stage
	FieldStage = "stage"
)
