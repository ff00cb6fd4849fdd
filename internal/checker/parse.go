package checker

import "github.com/sd155/subtasker/internal/agent"

const (
	tagValid   = "valid"
	tagInvalid = "invalid"
)

// ParseResponse decodes a checker reply of the form {"result":"valid"} or
// {"result":"invalid","reason":...}.
func ParseResponse(text string) (Verdict, error) {
	tag, fields, err := agent.DecodeObject(text)
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagValid:
		return Valid{}, nil
	case tagInvalid:
		reason, err := fields.String("reason")
		if err != nil {
			return nil, err
		}
		return Invalid{Reason: reason}, nil
	default:
		return nil, &agent.UnknownVariantError{Tag: tag}
	}
}
