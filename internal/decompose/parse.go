package decompose

import (
	"fmt"

	"github.com/sd155/subtasker/internal/agent"
	"github.com/sd155/subtasker/pkg/models"
)

const (
	tagQuery   = "query"
	tagSuccess = "success"
)

// subtaskDTO mirrors the reply JSON of one subtask. Pointers distinguish a
// missing field from an empty one.
type subtaskDTO struct {
	ID          *string      `json:"id"`
	Name        *string      `json:"name"`
	Instruction *string      `json:"instruction"`
	Subtasks    []subtaskDTO `json:"subtasks"`
}

// ParseResponse decodes a decomposer reply of the form
// {"result":"query","question":...} or {"result":"success","subtasks":[...]}.
func ParseResponse(text string) (Outcome, error) {
	tag, fields, err := agent.DecodeObject(text)
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagQuery:
		question, err := fields.String("question")
		if err != nil {
			return nil, err
		}
		return Query{Question: question}, nil

	case tagSuccess:
		var dtos []subtaskDTO
		if err := fields.Decode("subtasks", &dtos); err != nil {
			return nil, err
		}
		subtasks, err := toNodes(dtos, "subtasks")
		if err != nil {
			return nil, err
		}
		return Decomposed{Subtasks: subtasks}, nil

	default:
		return nil, &agent.UnknownVariantError{Tag: tag}
	}
}

// toNodes converts decoded subtasks, checking required fields at every depth.
// The result is never nil so it encodes as [] rather than null.
func toNodes(dtos []subtaskDTO, path string) ([]models.SubtaskNode, error) {
	nodes := make([]models.SubtaskNode, 0, len(dtos))
	for i, dto := range dtos {
		at := fmt.Sprintf("%s[%d]", path, i)
		if dto.ID == nil {
			return nil, fmt.Errorf("%s: missing required field %q", at, "id")
		}
		if dto.Name == nil {
			return nil, fmt.Errorf("%s: missing required field %q", at, "name")
		}
		if dto.Instruction == nil {
			return nil, fmt.Errorf("%s: missing required field %q", at, "instruction")
		}
		children, err := toNodes(dto.Subtasks, at+".subtasks")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, models.SubtaskNode{
			ID:          *dto.ID,
			Name:        *dto.Name,
			Instruction: *dto.Instruction,
			Subtasks:    children,
		})
	}
	return nodes, nil
}
