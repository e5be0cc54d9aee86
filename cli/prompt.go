package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/grovetools/nig-upload/errors"
)

// Prompter asks the user for missing values and confirmations.
type Prompter struct {
	// AssumeYes answers every confirmation with yes.
	AssumeYes bool
	// Accessible switches to plain line based prompts, used when stdin is
	// not a terminal.
	Accessible bool
}

// NewPrompter creates a prompter for the current terminal.
func NewPrompter(assumeYes bool) *Prompter {
	return &Prompter{
		AssumeYes:  assumeYes,
		Accessible: !term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, message string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}

	var ok bool
	field := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := p.run(ctx, field); err != nil {
		return false, err
	}
	return ok, nil
}

// Input asks for a value. Secret values are not echoed.
func (p *Prompter) Input(ctx context.Context, title string, secret bool) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Value(&value).
		Validate(func(s string) error {
			if s == "" {
				return errors.InvalidInput(title + " is required")
			}
			return nil
		})
	if secret {
		field = field.EchoMode(huh.EchoModePassword)
	}
	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// Fill prompts for every empty value in order.
func (p *Prompter) Fill(ctx context.Context, fields ...PromptField) error {
	for _, f := range fields {
		if *f.Value != "" {
			continue
		}
		value, err := p.Input(ctx, f.Title, f.Secret)
		if err != nil {
			return err
		}
		*f.Value = value
	}
	return nil
}

// PromptField is a value requested by Fill.
type PromptField struct {
	Title  string
	Value  *string
	Secret bool
}

func (p *Prompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.Accessible).
		WithShowHelp(false)
	if err := form.RunWithContext(ctx); err != nil {
		if err == huh.ErrUserAborted {
			return errors.New(errors.ErrCodeAborted, "Aborted by the user")
		}
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read user input")
	}
	return nil
}
