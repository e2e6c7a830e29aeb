package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEmptyReply is returned when the model produced no text.
	ErrEmptyReply = errors.New("empty reply from model")
	// ErrMalformedReply is returned when the reply is not a single JSON object.
	ErrMalformedReply = errors.New("model reply is not a JSON object")
	// ErrIncompleteResult is returned by ValidateShape for partially populated results.
	ErrIncompleteResult = errors.New("model reply does not match the analysis result shape")
)

var (
	jsonAPI  = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// ParseReply checks that the model reply is a syntactically valid JSON object
// and returns its bytes unchanged.
func ParseReply(reply string) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace([]byte(reply))
	if len(trimmed) == 0 {
		return nil, ErrEmptyReply
	}
	// jsoniter's Valid stops after the first value, so trailing text is
	// checked with the standard decoder.
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, ErrMalformedReply
	}
	return json.RawMessage(reply), nil
}

// ValidateShape decodes raw into an AnalysisResult and checks that every
// field the page renders is present. Count guidance given in the prompt is
// not enforced.
func ValidateShape(raw json.RawMessage) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := jsonAPI.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteResult, err)
	}
	if err := validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteResult, err)
	}
	return &result, nil
}

// Decode unmarshals raw into an AnalysisResult without shape checks.
func Decode(raw json.RawMessage) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := jsonAPI.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Encode marshals r with the same codec Decode uses.
func Encode(r *AnalysisResult) ([]byte, error) {
	return jsonAPI.Marshal(r)
}
