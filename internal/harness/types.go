package harness

// FailureRecord is one failed request of a run.
type FailureRecord struct {
	Seq     int64  `json:"seq"`
	Command string `json:"command"`
	Code    string `json:"code"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Session is the ID the run was recorded under.
	Session string `json:"session"`

	// Log is the persisted log, grouped by seq.
	Log []string `json:"log"`

	// Failures lists failed requests by seq.
	Failures []FailureRecord `json:"failures"`

	// Relations is the final cache in relation order.
	Relations []string `json:"relations"`

	// Traversal is the rendered walk from the scenario root, if any.
	Traversal string `json:"traversal,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(session string) *Result {
	return &Result{
		Pass:      true,
		Session:   session,
		Log:       []string{},
		Failures:  []FailureRecord{},
		Relations: []string{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
