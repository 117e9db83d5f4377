package frontend

import (
	"os"

	"github.com/xonecas/typo/internal/constants"
)

// Input is the translation unit handed to Session.Parse: a FileInput or a
// TextInput.
type Input interface {
	// Load returns the display name and source text of the input.
	Load() (name, src string, err error)
	isInput()
}

// FileInput is a source file on disk.
type FileInput string

// TextInput is source text that did not come from a file, such as
// standard input.
type TextInput string

func (p FileInput) Load() (string, string, error) {
	src, err := os.ReadFile(string(p))
	if err != nil {
		return string(p), "", err
	}
	return string(p), string(src), nil
}

func (t TextInput) Load() (string, string, error) {
	return constants.StdinName, string(t), nil
}

func (FileInput) isInput() {}
func (TextInput) isInput() {}
