// Package llm provides the chat-completion gateway used by the agents and the
// conversational context they exchange with the remote model.
package llm

import "fmt"

// Role identifies the author of a context element.
type Role int

const (
	// RoleSystem carries agent instructions.
	RoleSystem Role = iota
	// RoleUser carries user input.
	RoleUser
	// RoleAssistant carries model output.
	RoleAssistant
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a wire role name to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "system":
		return RoleSystem, nil
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, &UnknownRoleError{Role: s}
	}
}

// Element is one role-tagged message of a conversation.
type Element struct {
	Role Role
	Text string
}

// SystemElement creates a system element.
func SystemElement(text string) Element {
	return Element{Role: RoleSystem, Text: text}
}

// UserElement creates a user element.
func UserElement(text string) Element {
	return Element{Role: RoleUser, Text: text}
}

// AssistantElement creates an assistant element.
func AssistantElement(text string) Element {
	return Element{Role: RoleAssistant, Text: text}
}

// ContextView is a read-only view of a Context.
type ContextView interface {
	Len() int
	At(i int) Element
	Elements() []Element
}

// Context is an append-only, index-addressed log of elements.
// Elements are never removed or reordered. A Context is owned by a single
// agent and is not safe for concurrent use.
type Context struct {
	elements []Element
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{}
}

// Append adds an element and returns its index.
func (c *Context) Append(e Element) int {
	c.elements = append(c.elements, e)
	return len(c.elements) - 1
}

// Len returns the number of elements.
func (c *Context) Len() int {
	return len(c.elements)
}

// At returns the element at index i. It panics if i is out of range.
func (c *Context) At(i int) Element {
	return c.elements[i]
}

// Elements returns a copy of all elements in chronological order.
func (c *Context) Elements() []Element {
	out := make([]Element, len(c.elements))
	copy(out, c.elements)
	return out
}
