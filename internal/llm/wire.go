package llm

import "errors"

type chatRequest struct {
	Model          string       `json:"model"`
	Messages       []messageDTO `json:"messages"`
	ResponseFormat formatDTO    `json:"response_format"`
	Provider       *providerDTO `json:"provider,omitempty"`
}

type formatDTO struct {
	Type string `json:"type"`
}

type providerDTO struct {
	Only []string `json:"only"`
}

type chatResponse struct {
	Choices []choiceDTO `json:"choices"`
	Usage   *usageDTO   `json:"usage,omitempty"`
}

type choiceDTO struct {
	Message *messageDTO `json:"message"`
}

type usageDTO struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

type messageDTO struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// toElement maps a response message to an Element. A missing content or
// role is an ordinary error; a role outside system/user/assistant panics
// with *UnknownRoleError.
func (m *messageDTO) toElement() (Element, error) {
	if m.Content == nil {
		return Element{}, errors.New("message has no content")
	}
	if m.Role == nil || *m.Role == "" {
		return Element{}, errors.New("message has no role")
	}
	role, err := ParseRole(*m.Role)
	if err != nil {
		panic(err)
	}
	return Element{Role: role, Text: *m.Content}, nil
}
