// Package printer renders an ast.Class as text.
//
// Two styles share one Builder, an indentation-tracking token list:
//
//	fmt.Println(printer.Javap(cls))  // declarations plus disassembly
//	fmt.Println(printer.Source(cls)) // declaration skeleton
//
// Disassembly lines have the form
//
//	#12   invokevirtual      java.io.PrintStream.println(java.lang.String):void
//
// with branch operands shown as absolute targets.
package printer
