// Package cpu implements the instruction set, assembler and actor core of
// the hcpu system.
//
// Assembly source is classified by a table driven lexer, grouped into
// instructions and label definitions by the parser, then encoded by the
// linker. Immediates given as `expressions` are written as placeholders
// and patched once every label offset is known, so labels may be used
// before or after their definition.
//
// At run time each instruction is decoded from the shared image and
// turned into an Action, evaluated against the issuing Core. Applying
// actions, and scheduling cores, is the job of the emulator package.
package cpu
