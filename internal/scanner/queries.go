package scanner

// Definitions locates class, method, and function-like definitions
// (function declarations, arrow functions and function expressions
// assigned to a name, and object-literal methods). Extends the
// teacher's definition-only query set with the capture names the
// extractor needs to tell function-vs-class-vs-method apart.
var Definitions = map[Lang]string{
	LangJavaScript: definitionQueryJS,
	LangTypeScript: definitionQueryTS,
	LangTSX:        definitionQueryTS,
}

const definitionQueryJS = `
	(class_declaration name: (identifier) @class.name) @class.def
	(method_definition name: (property_identifier) @method.name) @method.def
	(function_declaration name: (identifier) @function.name) @function.def
	(generator_function_declaration name: (identifier) @function.name) @function.def
	(variable_declarator
		name: (identifier) @function.name
		value: [(arrow_function) (function_expression)] @function.def)
	(pair
		key: (property_identifier) @function.name
		value: [(arrow_function) (function_expression)] @function.def)
	(assignment_expression
		left: (identifier) @function.name
		right: [(arrow_function) (function_expression)] @function.def)
`

const definitionQueryTS = `
	(class_declaration name: (type_identifier) @class.name) @class.def
	(method_definition name: (property_identifier) @method.name) @method.def
	(function_declaration name: (identifier) @function.name) @function.def
	(generator_function_declaration name: (identifier) @function.name) @function.def
	(variable_declarator
		name: (identifier) @function.name
		value: [(arrow_function) (function_expression)] @function.def)
	(pair
		key: (property_identifier) @function.name
		value: [(arrow_function) (function_expression)] @function.def)
	(assignment_expression
		left: (identifier) @function.name
		right: [(arrow_function) (function_expression)] @function.def)
`

// Imports locates import statements; the extractor walks each
// captured statement's children to classify default/named/namespace
// clauses, since a single import statement can mix all three.
var Imports = map[Lang]string{
	LangJavaScript: importQuery,
	LangTypeScript: importQuery,
	LangTSX:        importQuery,
}

const importQuery = `
	(import_statement
		source: (string) @import.source) @import.stmt
`

// Requires locates CommonJS `require(...)` calls bound to a variable
// (destructured or not); the extractor checks the captured function
// name is actually "require" since the grammar has no text predicate
// for it. A bare, unbound `require("x")` produces no capture here and
// is filtered out of ordinary call sites separately.
var Requires = map[Lang]string{
	LangJavaScript: requireQuery,
	LangTypeScript: requireQuery,
	LangTSX:        requireQuery,
}

const requireQuery = `
	(variable_declarator
		name: (identifier) @require.varname
		value: (call_expression
			function: (identifier) @require.fn
			arguments: (arguments (string) @require.source))) @require.decl
	(variable_declarator
		name: (object_pattern) @require.pattern
		value: (call_expression
			function: (identifier) @require.fn
			arguments: (arguments (string) @require.source))) @require.decl
`

// Exports locates export statements (named, default, and re-export
// forms); the extractor walks each captured node's children directly
// to classify which form it is.
var Exports = map[Lang]string{
	LangJavaScript: `(export_statement) @export.stmt`,
	LangTypeScript: `(export_statement) @export.stmt`,
	LangTSX:        `(export_statement) @export.stmt`,
}

// CallSites locates both bare-call and member-call expressions.
var CallSites = map[Lang]string{
	LangJavaScript: callSiteQuery,
	LangTypeScript: callSiteQuery,
	LangTSX:        callSiteQuery,
}

const callSiteQuery = `
	(call_expression
		function: (identifier) @call.callee) @call.expr
	(call_expression
		function: (member_expression
			object: (_) @call.receiver
			property: (property_identifier) @call.method)) @call.expr
`

// NewExpressions locates "const v = new C(...)" initializers, the
// source of the conservative instance→class map (see GLOSSARY:
// Instance map).
var NewExpressions = map[Lang]string{
	LangJavaScript: newExprQuery,
	LangTypeScript: newExprQuery,
	LangTSX:        newExprQuery,
}

const newExprQuery = `
	(variable_declarator
		name: (identifier) @new.varname
		value: (new_expression
			constructor: (identifier) @new.class))
`

// CallableKinds is the set of AST node kinds that can enclose a call
// site; it drives the nearest-enclosing-callable search used for
// caller attribution (spec §4.2).
var CallableKinds = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"arrow_function":                 true,
	"method_definition":              true,
}
