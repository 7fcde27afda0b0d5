package main

import (
	"bytes"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/charm"
	"github.com/wippyai/charm/classfile"
	charmerrors "github.com/wippyai/charm/errors"
	"github.com/wippyai/charm/printer"
)

func (a *app) javapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "javap <class-or-file>...",
		Short: "Print declarations with disassembled method bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.render(args, printer.StyleJavap)
		},
	}
}

func (a *app) sourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "source <class-or-file>...",
		Short: "Print a declaration skeleton with empty bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.render(args, printer.StyleSource)
		},
	}
}

func (a *app) sexpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sexp <class-or-file>...",
		Short: "Dump the raw class file record as an s-expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var n int
			return a.each(args, func(_ string, data []byte) error {
				cf, err := classfile.DecodeBytes(data)
				if err != nil {
					return err
				}
				a.separate(&n)
				return a.write(classfile.Sexp(cf) + "\n")
			})
		},
	}
}

func (a *app) yamlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "yaml <class-or-file>...",
		Short: "Dump the raw class file record as YAML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(a.out)
			enc.SetIndent(2)
			err := a.each(args, func(_ string, data []byte) error {
				cf, err := classfile.DecodeBytes(data)
				if err != nil {
					return err
				}
				if err := enc.Encode(cf); err != nil {
					return charmerrors.Wrap(charmerrors.PhaseRender, charmerrors.KindInvalidInput, err, "encode yaml")
				}
				return nil
			})
			return multierr.Append(err, enc.Close())
		},
	}
}

// render decodes each argument and prints it in style, separating classes
// with a blank line.
func (a *app) render(args []string, style printer.Style) error {
	colored := a.colorEnabled()
	var n int
	return a.each(args, func(_ string, data []byte) error {
		var buf bytes.Buffer
		if err := charm.Render(&buf, bytes.NewReader(data), style); err != nil {
			return err
		}
		text := buf.String()
		if colored {
			text = highlight(text)
		}
		a.separate(&n)
		return a.write(text)
	})
}

func (a *app) separate(n *int) {
	if *n > 0 {
		_ = a.write("\n")
	}
	*n++
}

func (a *app) write(s string) error {
	if _, err := io.WriteString(a.out, s); err != nil {
		return charmerrors.Wrap(charmerrors.PhaseRender, charmerrors.KindInvalidInput, err, "write output")
	}
	return nil
}
