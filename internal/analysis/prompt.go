package analysis

import (
	_ "embed"
	"strings"
)

// PromptVersion identifies the instruction template sent to the model. Bump it
// together with a new prompts/face_analysis_vN.txt file.
const PromptVersion = "face_analysis_v1"

//go:embed prompts/face_analysis_v1.txt
var promptV1 string

// Prompt returns the fixed instruction text for the current PromptVersion.
func Prompt() string {
	return strings.TrimSpace(promptV1)
}
