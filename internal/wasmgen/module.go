// Package wasmgen encodes small core WebAssembly modules that drive host
// functions: every imported function gets an exported trampoline that
// forwards its parameters, and the module exports its memory so the caller
// can lay out strings and argument areas before calling in.
package wasmgen

const (
	magic   = 0x6d736100 // \0asm
	version = 1

	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10
	sectionData     = 11

	kindFunc   = 0x00
	kindMemory = 0x02

	funcTypeByte = 0x60

	opLocalGet = 0x20
	opCall     = 0x10
	opI32Const = 0x41
	opEnd      = 0x0b
)

// ValType is a core value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

// ExportPrefix is prepended to the import name to form the trampoline
// export name.
const ExportPrefix = "call_"

// MemoryExport is the name the module exports its memory under.
const MemoryExport = "memory"

type funcImport struct {
	module, name string
	params       []ValType
	results      []ValType
}

type dataSegment struct {
	offset uint32
	data   []byte
}

// Module describes a trampoline module.
type Module struct {
	imports []funcImport
	data    []dataSegment
	pages   uint32
}

// New returns a module with pages 64 KiB pages of memory.
func New(pages uint32) *Module {
	return &Module{pages: pages}
}

// Import adds a host function import and its trampoline export.
func (m *Module) Import(module, name string, params, results []ValType) *Module {
	m.imports = append(m.imports, funcImport{module: module, name: name, params: params, results: results})
	return m
}

// Data adds an active data segment at offset.
func (m *Module) Data(offset uint32, data []byte) *Module {
	m.data = append(m.data, dataSegment{offset: offset, data: data})
	return m
}

// Encode returns the binary module.
func (m *Module) Encode() []byte {
	var w writer
	w.WriteU32LE(magic)
	w.WriteU32LE(version)

	n := uint32(len(m.imports))

	var types writer
	types.WriteU32(n)
	for _, imp := range m.imports {
		types.Byte(funcTypeByte)
		writeValTypes(&types, imp.params)
		writeValTypes(&types, imp.results)
	}
	w.section(sectionType, &types)

	var imports writer
	imports.WriteU32(n)
	for i, imp := range m.imports {
		imports.WriteName(imp.module)
		imports.WriteName(imp.name)
		imports.Byte(kindFunc)
		imports.WriteU32(uint32(i))
	}
	w.section(sectionImport, &imports)

	var funcs writer
	funcs.WriteU32(n)
	for i := range m.imports {
		funcs.WriteU32(uint32(i))
	}
	w.section(sectionFunction, &funcs)

	var mem writer
	mem.WriteU32(1)
	mem.Byte(0x00) // min only
	mem.WriteU32(m.pages)
	w.section(sectionMemory, &mem)

	var exports writer
	exports.WriteU32(n + 1)
	exports.WriteName(MemoryExport)
	exports.Byte(kindMemory)
	exports.WriteU32(0)
	for i, imp := range m.imports {
		exports.WriteName(ExportPrefix + imp.name)
		exports.Byte(kindFunc)
		exports.WriteU32(n + uint32(i))
	}
	w.section(sectionExport, &exports)

	var code writer
	code.WriteU32(n)
	for i, imp := range m.imports {
		var body writer
		body.WriteU32(0) // no locals
		for p := range imp.params {
			body.Byte(opLocalGet)
			body.WriteU32(uint32(p))
		}
		body.Byte(opCall)
		body.WriteU32(uint32(i))
		body.Byte(opEnd)

		code.WriteU32(uint32(len(body.Bytes())))
		code.WriteBytes(body.Bytes())
	}
	w.section(sectionCode, &code)

	if len(m.data) > 0 {
		var data writer
		data.WriteU32(uint32(len(m.data)))
		for _, seg := range m.data {
			data.WriteU32(0) // active, memory 0
			data.Byte(opI32Const)
			data.WriteS32(int32(seg.offset))
			data.Byte(opEnd)
			data.WriteU32(uint32(len(seg.data)))
			data.WriteBytes(seg.data)
		}
		w.section(sectionData, &data)
	}

	return w.Bytes()
}

func writeValTypes(w *writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}
