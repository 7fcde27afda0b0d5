package ast

import (
	"strings"

	"github.com/wippyai/charm/classfile"
)

// Modifier is a Java access or property keyword.
type Modifier string

const (
	Public       Modifier = "public"
	Private      Modifier = "private"
	Protected    Modifier = "protected"
	Static       Modifier = "static"
	Final        Modifier = "final"
	Synchronized Modifier = "synchronized"
	Volatile     Modifier = "volatile"
	Transient    Modifier = "transient"
	Native       Modifier = "native"
	Abstract     Modifier = "abstract"
	Strict       Modifier = "strictfp"
)

// Modifiers is an ordered modifier list. The order is the rendering order.
type Modifiers []Modifier

// Has reports whether m contains mod.
func (m Modifiers) Has(mod Modifier) bool {
	for _, x := range m {
		if x == mod {
			return true
		}
	}
	return false
}

// String joins the modifiers with single spaces.
func (m Modifiers) String() string {
	parts := make([]string, len(m))
	for i, x := range m {
		parts[i] = string(x)
	}
	return strings.Join(parts, " ")
}

type flagModifier struct {
	flag classfile.AccessFlags
	mod  Modifier
}

var (
	classOrder = []flagModifier{
		{classfile.AccPublic, Public},
		{classfile.AccAbstract, Abstract},
		{classfile.AccFinal, Final},
	}
	methodOrder = []flagModifier{
		{classfile.AccPublic, Public},
		{classfile.AccPrivate, Private},
		{classfile.AccProtected, Protected},
		{classfile.AccAbstract, Abstract},
		{classfile.AccFinal, Final},
		{classfile.AccStatic, Static},
		{classfile.AccSynchronized, Synchronized},
		{classfile.AccNative, Native},
		{classfile.AccStrict, Strict},
	}
	fieldOrder = []flagModifier{
		{classfile.AccPublic, Public},
		{classfile.AccPrivate, Private},
		{classfile.AccProtected, Protected},
		{classfile.AccStatic, Static},
		{classfile.AccFinal, Final},
		{classfile.AccVolatile, Volatile},
		{classfile.AccTransient, Transient},
	}
)

func decodeFlags(flags classfile.AccessFlags, order []flagModifier) Modifiers {
	var mods Modifiers
	for _, fm := range order {
		if flags.Has(fm.flag) {
			mods = append(mods, fm.mod)
		}
	}
	return mods
}

// ClassModifiers decodes class access flags. Interfaces always carry
// ACC_ABSTRACT, so abstract is left out of their list.
func ClassModifiers(flags classfile.AccessFlags) Modifiers {
	if flags.Has(classfile.AccInterface) {
		flags &^= classfile.AccAbstract
	}
	return decodeFlags(flags, classOrder)
}

// MethodModifiers decodes method access flags.
func MethodModifiers(flags classfile.AccessFlags) Modifiers {
	return decodeFlags(flags, methodOrder)
}

// FieldModifiers decodes field access flags.
func FieldModifiers(flags classfile.AccessFlags) Modifiers {
	return decodeFlags(flags, fieldOrder)
}
