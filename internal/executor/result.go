package executor

// Failure classifies why a Result is unsuccessful.
type Failure int

// Failure kinds.
const (
	FailureNone Failure = iota

	// FailureUnknown means the intent was not recognised. No call was made.
	FailureUnknown

	// FailureInvalid means the request could not be turned into a call,
	// such as a scene without a name or an unsupported action.
	FailureInvalid

	// FailureUpstream means the device-control API failed or was unreachable.
	FailureUpstream
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureUnknown:
		return "unknown"
	case FailureInvalid:
		return "invalid"
	case FailureUpstream:
		return "upstream"
	default:
		return "failure(?)"
	}
}

// Result is the terminal outcome of one execution.
type Result struct {
	Success    bool           `json:"success"`
	Intent     string         `json:"intent,omitempty"`
	Action     string         `json:"action,omitempty"`
	Target     string         `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Message    string         `json:"message,omitempty"`
	Data       any            `json:"data,omitempty"`

	// Single-entity reads.
	State      string         `json:"state,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`

	Error      string `json:"error,omitempty"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`

	Failure Failure `json:"-"`
}
