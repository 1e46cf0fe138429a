package pipeline

// Request is one unit of pipeline work: the raw text of a document chunk
// plus the task id it is processed under.
type Request struct {
	Text string `json:"text"`
	Tid  string `json:"tid"`
}
