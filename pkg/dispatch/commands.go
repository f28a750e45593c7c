package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WebSearchCommand is the built-in command prefix that searches the web with its prompt.
const WebSearchCommand = "s"

// Command is a user-defined generative command invoked as %prefix% or /prefix.
type Command struct {
	Prefix  string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Message string `json:"message" yaml:"message" toml:"message"`
}

// DefaultCommands returns the commands installed out of the box.
func DefaultCommands() []Command {
	return []Command{
		{Prefix: "tr", Message: "Translate the following text. If it's in Arabic, translate to English and vice versa. Give only the translation."},
		{Prefix: "fix", Message: "Fix spelling and grammar errors in the following text. Give only the corrected text."},
		{Prefix: "short", Message: "Summarize the following text in one or two sentences."},
		{Prefix: "formal", Message: "Rewrite the following text in a formal and professional style. Give only the rewritten text."},
		{Prefix: "casual", Message: "Rewrite the following text in a friendly and casual style. Give only the rewritten text."},
		{Prefix: "reply", Message: "Write a short and appropriate reply to the following message. Give only the reply."},
		{Prefix: "email", Message: "Write a professional email about the following topic."},
		{Prefix: "explain", Message: "Explain the following topic in a simple and easy to understand way."},
		{Prefix: "code", Message: "Write the requested code without additional explanation. Give only the code."},
		{Prefix: "emoji", Message: "Add appropriate emojis to the following text. Give only the text with emojis."},
	}
}

// CommandNames returns the prefixes the parser should recognise, including
// the built-in web search command.
func CommandNames(commands []Command) []string {
	names := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		names = append(names, c.Prefix)
	}
	return append(names, WebSearchCommand)
}

// findCommand looks up prefix ignoring case.
func findCommand(commands []Command, prefix string) (Command, bool) {
	for _, c := range commands {
		if strings.EqualFold(c.Prefix, prefix) {
			return c, true
		}
	}
	return Command{}, false
}

// EncodeCommands serialises commands as a JSON array of {prefix, message}.
func EncodeCommands(commands []Command) ([]byte, error) {
	if commands == nil {
		commands = []Command{}
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return nil, fmt.Errorf("encoding commands: %w", err)
	}
	return data, nil
}

// DecodeCommands parses a JSON command list. Empty input yields the defaults.
func DecodeCommands(data []byte) ([]Command, error) {
	if strings.TrimSpace(string(data)) == "" {
		return DefaultCommands(), nil
	}
	var commands []Command
	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, fmt.Errorf("decoding commands: %w", err)
	}
	return commands, nil
}
