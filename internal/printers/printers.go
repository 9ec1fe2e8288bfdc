// Package printers wraps the interactive prompts and console output used by
// the command layer.
package printers

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

const selectItemsSize = 10

var defaultPrinters = Printers{}

// IPrinters abstracts the interactive prompts so commands can be tested
// without a terminal.
type IPrinters interface {
	Confirm(message string) bool
	Select(label string, items []string) (int, string, error)
}

type Printers struct{}

// NewPrinters returns new printers struct
func NewPrinters() *Printers {
	return &Printers{}
}

func (p Printers) Confirm(message string) bool {
	validate := func(input string) error {
		input = strings.ToLower(strings.TrimSpace(input))
		if input != "y" && input != "n" {
			return fmt.Errorf("wrong input %s, was expecting `y` or `n`", input)
		}

		return nil
	}

	msg := message + " Press (y/n)"
	prompt := promptui.Prompt{
		Label:    msg,
		Validate: validate,
	}

	result, err := prompt.Run()
	if err != nil {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(result))

	return input == "y"
}

// Select prompts the user to pick one of items.
func (p Printers) Select(label string, items []string) (int, string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  selectItemsSize,
	}

	i, result, err := prompt.Run()
	if err != nil {
		return i, "", fmt.Errorf("prompt failed %v", err)
	}

	return i, result, nil
}

// Confirm prompt a confirmation message
//
// Return true if the user entered Y/y and false if entered n/N
func Confirm(message string) bool {
	return defaultPrinters.Confirm(message)
}

// Select prompts a single choice from items using the default printers.
func Select(label string, items []string) (int, string, error) {
	return defaultPrinters.Select(label, items)
}

// Success prints a green-checked status line.
func Success(format string, args ...any) {
	fmt.Printf("✓ "+format+"\n", args...)
}

// Warning prints a warning line to stderr.
func Warning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "! "+format+"\n", args...)
}

// Error prints an error line to stderr.
func Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Info prints a plain status line.
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
