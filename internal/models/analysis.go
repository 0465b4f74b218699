package models

// AIAnalysis is advisory data produced alongside the generated post
type AIAnalysis struct {
	Sentiment       string   `json:"sentiment"`
	EngagementScore int      `json:"engagementScore"`
	Hashtags        []string `json:"hashtags"`
	Suggestions     []string `json:"suggestions"`
	Summary         string   `json:"summary"`
}

// RequestStatus is the lifecycle of the single generation request
type RequestStatus string

const (
	StatusIdle    RequestStatus = "idle"
	StatusLoading RequestStatus = "loading"
	StatusSuccess RequestStatus = "success"
	StatusError   RequestStatus = "error"
)

// EditorTab is the active pane of the editor surface
type EditorTab string

const (
	TabAI   EditorTab = "ai"
	TabEdit EditorTab = "edit"
)

func (t EditorTab) Valid() bool {
	return t == TabAI || t == TabEdit
}
