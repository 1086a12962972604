package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrNoChoices is returned when a selection is requested from an empty list.
var ErrNoChoices = errors.New("nothing to choose from")

// IsInteractive reports whether stdin is attached to a terminal.
func IsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// SelectOne asks the user to pick one of choices. Typing filters the list
// by prefix.
func SelectOne(label string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", ErrNoChoices
	}

	sel := &promptui.Select{
		Label: label,
		Items: choices,
		Searcher: func(input string, index int) bool {
			return input != "" && strings.HasPrefix(choices[index], input)
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}

	_, value, err := sel.Run()
	if err != nil {
		return "", err
	}

	return value, nil
}

// PromptConfirm asks a yes/no question. Declining is not an error.
func PromptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
