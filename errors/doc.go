// Package errors provides structured error types for the charm decoder.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: record field path, byte offset,
// instruction mnemonic and category, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseNormalize, errors.KindUnsupported).
//		Instruction("tableswitch", "table_switch").
//		Offset(12).
//		Detail("switch lowering is not implemented").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Structural([]string{"ClassFile", "magic"}, 0, "bad magic 0xdeadbeef", nil)
//	err := errors.InvalidDescriptor("(I", "missing ')'")
//
// Sentinels such as ErrStructural match any error of their Kind:
//
//	if errors.Is(err, charmerrors.ErrStructural) { ... }
package errors
