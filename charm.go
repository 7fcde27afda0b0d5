package charm

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/wippyai/charm/ast"
	"github.com/wippyai/charm/classfile"
	"github.com/wippyai/charm/classpath"
	charmerrors "github.com/wippyai/charm/errors"
	"github.com/wippyai/charm/normalize"
	"github.com/wippyai/charm/printer"
)

// Decode reads a class file from r and normalizes it.
func Decode(r io.Reader) (*ast.Class, error) {
	cf, err := classfile.Decode(r)
	if err != nil {
		return nil, err
	}
	return normalize.Class(cf)
}

// DecodeBytes decodes and normalizes an in-memory class file.
func DecodeBytes(data []byte) (*ast.Class, error) {
	cf, err := classfile.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return normalize.Class(cf)
}

// DecodeFile decodes and normalizes the class file at path.
func DecodeFile(path string) (*ast.Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, charmerrors.Wrap(charmerrors.PhaseLoad, charmerrors.KindInvalidInput, err, "read "+path)
	}
	return DecodeBytes(data)
}

// Load finds className on cp and decodes it.
func Load(cp *classpath.ClassPath, className string) (*ast.Class, error) {
	res, err := cp.Find(className)
	if err != nil {
		return nil, err
	}
	data, err := res.Bytes()
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// Render decodes a class file from r and writes it to w in style.
func Render(w io.Writer, r io.Reader, style printer.Style) error {
	cls, err := Decode(r)
	if err != nil {
		return err
	}
	return printer.Render(w, cls, style)
}

// RenderString decodes data and returns the rendered text without a
// trailing newline.
func RenderString(data []byte, style printer.Style) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, bytes.NewReader(data), style); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
