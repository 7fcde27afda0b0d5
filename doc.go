// Package charm decodes JVM class files and renders them as text.
//
// The library is organized into packages along the decoding pipeline:
//
//	charm/               Root package with one-call decode and render helpers
//	├── classfile/       Binary class file layout, constant pool, attributes, bytecode
//	├── ast/             Types, descriptors, modifiers and typed instructions
//	├── normalize/       Raw record to AST lowering
//	├── printer/         Disassembly and declaration skeleton renderers
//	├── classpath/       Directory and jar lookup of class names
//	├── errors/          Structured error types for debugging
//	└── cmd/charm/       Command line tool
//
// # Quick Start
//
// Decode and print a class file:
//
//	cls, err := charm.DecodeFile("Foo.class")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(printer.Javap(cls))
//
// Or resolve it through a classpath:
//
//	cp, _ := classpath.New("build/classes", "lib/dep.jar")
//	defer cp.Close()
//	cls, err := charm.Load(cp, "com.example.Foo")
//
// # Errors
//
// Every failure is an *errors.Error carrying the phase (load, pool, decode,
// normalize, descriptor, render, lookup), a kind and, for layout errors, the
// field path and byte offset. A failed decode never returns a partial
// class.
//
// # Thread Safety
//
// Decoding is synchronous and each call owns its constant pool and AST, so
// independent class files may be decoded concurrently. A ClassPath is safe
// for concurrent lookups.
package charm
