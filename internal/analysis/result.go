package analysis

// AnalysisResult is the structured reply the model is asked to produce.
type AnalysisResult struct {
	FaceShape       string     `json:"faceShape" validate:"required"`
	Characteristics []string   `json:"characteristics" validate:"required,min=1,dive,required"`
	Exercises       []Exercise `json:"exercises" validate:"required,min=1,dive"`
	Habits          []Habit    `json:"habits" validate:"required,min=1,dive"`
	Recommendations []string   `json:"recommendations"`
}

// Exercise is a single facial exercise suggestion.
type Exercise struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Duration    string   `json:"duration"`
	Frequency   string   `json:"frequency"`
	Benefits    []string `json:"benefits"`
}

// Habit is a single healthy-habit suggestion.
type Habit struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Frequency   string `json:"frequency"`
	Impact      string `json:"impact"`
}
