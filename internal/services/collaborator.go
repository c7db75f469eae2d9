package services

import (
	"context"
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/director"
)

// systemPrompts defines each collaborator's behavior profile. The
// engine treats the generated text as opaque; only the profile differs.
var systemPrompts = map[string]string{
	director.CollaboratorNarrator: "You are the narrator of a text adventure. " +
		"Continue the story in second person, present tense, in 2-4 sentences. " +
		"Never break character and never mention game mechanics directly.",
	director.CollaboratorMechanic: "You are the rules arbiter of a text adventure. " +
		"Describe the mechanical consequences of the player's action in 1-2 " +
		"sentences, grounded in the dice results present in the context.",
	director.CollaboratorCommentator: "You are a wry offstage commentator in a text " +
		"adventure. Add a single parenthetical aside reacting to the scene. One sentence.",
	director.CollaboratorGuide: "You are guiding a new player through creating their " +
		"character. Ask for whatever is still missing (name, race, class) and " +
		"acknowledge what they have chosen so far. Keep it to 2-3 sentences.",
}

// ProfileCollaborator adapts a ChatService to the Collaborator contract
// with a fixed behavior profile.
type ProfileCollaborator struct {
	name string
	chat ChatService
}

var _ director.Collaborator = (*ProfileCollaborator)(nil)

// NewProfileCollaborator creates a collaborator for one of the known
// profile names.
func NewProfileCollaborator(name string, chat ChatService) (*ProfileCollaborator, error) {
	if _, ok := systemPrompts[name]; !ok {
		return nil, fmt.Errorf("no behavior profile for collaborator %q", name)
	}
	return &ProfileCollaborator{name: name, chat: chat}, nil
}

// NewCollaborators builds the full collaborator set over one ChatService,
// keyed the way the routing policy names them.
func NewCollaborators(chat ChatService) map[string]director.Collaborator {
	set := make(map[string]director.Collaborator, len(systemPrompts))
	for name := range systemPrompts {
		set[name] = &ProfileCollaborator{name: name, chat: chat}
	}
	return set
}

// Respond sends the action and accumulated context under the profile's
// system prompt.
func (c *ProfileCollaborator) Respond(ctx context.Context, action string, contextText string) (string, error) {
	messages := []ChatMessage{
		{Role: ChatRoleSystem, Content: systemPrompts[c.name]},
	}
	if contextText != "" {
		messages = append(messages, ChatMessage{
			Role:    ChatRoleSystem,
			Content: "Story so far:\n" + contextText,
		})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: action})

	return c.chat.Chat(ctx, messages)
}
