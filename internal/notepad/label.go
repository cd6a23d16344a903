package notepad

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notepad/internal/apperr"
)

const (
	// Dir is the subdirectory of the root that holds note files.
	Dir = "notepad"
	// Ext is the file suffix of every note file.
	Ext = ".note"
	// MaxLabelLen bounds a label in bytes so the file name stays portable.
	MaxLabelLen = 200
)

// ValidateLabel reports whether label can be used as a file name component.
// The returned error wraps apperr.ErrInvalidLabel.
func ValidateLabel(label string) error {
	err := validation.Validate(label,
		validation.Required,
		validation.Length(1, MaxLabelLen),
		validation.By(labelChars),
	)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", apperr.ErrInvalidLabel, label, err)
	}
	return nil
}

func labelChars(value interface{}) error {
	s, _ := value.(string)
	if !utf8.ValidString(s) {
		return errors.New("must be valid UTF-8")
	}
	if s != strings.TrimSpace(s) {
		return errors.New("must not start or end with whitespace")
	}
	if s == "." || s == ".." {
		return errors.New("must not be a relative directory name")
	}
	if strings.ContainsAny(s, `/\`) {
		return errors.New("must not contain path separators")
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return errors.New("must not contain control characters")
		}
	}
	return nil
}

// Location derives the backing file of a note from the root directory and
// its label. Distinct valid labels always map to distinct locations.
func Location(root, label string) (string, error) {
	if err := ValidateLabel(label); err != nil {
		return "", err
	}
	return filepath.Join(root, Dir, label+Ext), nil
}
