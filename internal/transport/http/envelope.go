package http

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"quiz-scoring-service/internal/domain"
)

// submissionSchema only checks the envelope shape. Entries that point at
// unknown questions or options are left for the scorer to normalize.
const submissionSchema = `{
	"type": "object",
	"required": ["answers"],
	"properties": {
		"answers": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"questionIndex": {"type": "integer"},
					"selectedOption": {"type": "integer"}
				}
			}
		}
	}
}`

const submissionSchemaURL = "schema://submission.json"

var compileSubmissionSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(submissionSchema)))
	if err != nil {
		return nil, fmt.Errorf("parse submission schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(submissionSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(submissionSchemaURL)
})

type answerPayload struct {
	QuestionIndex  *int `json:"questionIndex"`
	SelectedOption *int `json:"selectedOption"`
}

type submissionPayload struct {
	Answers []answerPayload `json:"answers"`
}

// validateSubmission rejects bodies whose answers are not a list of
// index/index pairs.
func validateSubmission(body []byte) error {
	schema, err := compileSubmissionSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrMalformedSubmission, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedSubmission, err)
	}
	return nil
}

// toAnswers drops entries without a question index (they can never match a
// question) and treats a missing selection as unanswered.
func (p submissionPayload) toAnswers() []domain.Answer {
	answers := make([]domain.Answer, 0, len(p.Answers))
	for _, a := range p.Answers {
		if a.QuestionIndex == nil {
			continue
		}
		selected := -1
		if a.SelectedOption != nil {
			selected = *a.SelectedOption
		}
		answers = append(answers, domain.Answer{QuestionIndex: *a.QuestionIndex, SelectedOption: selected})
	}
	return answers
}
