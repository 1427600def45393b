// Package resolve implements the cross-file resolution pass (spec
// §4.3): it rewrites each file's placeholder call targets to stable
// entity IDs using imports, exports, local lookup, and the
// instance→class map, and classifies whatever it cannot bind as
// external or leaves it as a placeholder.
package resolve

import (
	"strings"

	"codemap/internal/extract"
	"codemap/internal/location"
)

// ResolvedCall is one call site after Pass 2, carrying enough
// information for the graph builder (spec §4.4) to materialize the
// right node/edge shape without re-deriving it.
type ResolvedCall struct {
	From       string
	OriginFile string
	CalleeName string
	Receiver   string
	Method     string
	Type       extract.CallKind
	Line       int

	Resolved   bool
	ResolvedID string

	External   bool
	ModuleName string

	// Ambiguous marks a resolution that had more than one candidate
	// and was therefore left unresolved (spec §7, resolution-ambiguous:
	// never fatal).
	Ambiguous bool
}

type functionEntry struct {
	id   string
	file string
}

type methodEntry struct {
	id        string
	file      string
	className string
}

// Registries are the global cross-file indices built once per build
// (spec §4.3, "Derived indices built once").
type Registries struct {
	functionsByName map[string][]functionEntry
	methodsByQual   map[string][]methodEntry // "Class.method"
	methodsByName   map[string][]methodEntry // fallback: bare method name
	instanceGlobal  map[string]string        // union of per-file instance maps
}

// BuildRegistries indexes every file's IR. files must be supplied in
// the deterministic insertion order the build discovered them in
// (spec §5: "Pass 2 iterates files in insertion order"), since ties
// are broken by first-in-insertion-order.
func BuildRegistries(files []*extract.FileIR) *Registries {
	r := &Registries{
		functionsByName: make(map[string][]functionEntry),
		methodsByQual:   make(map[string][]methodEntry),
		methodsByName:   make(map[string][]methodEntry),
		instanceGlobal:  make(map[string]string),
	}
	for _, f := range files {
		for _, fn := range f.Functions {
			if fn.Name == "" {
				continue
			}
			r.functionsByName[fn.Name] = append(r.functionsByName[fn.Name], functionEntry{id: fn.ID, file: f.File})
		}
		for exported, ids := range f.Exports {
			for _, id := range ids {
				r.functionsByName[exported] = appendUnique(r.functionsByName[exported], functionEntry{id: id, file: f.File})
			}
		}
		for _, m := range f.Methods {
			qual := m.ClassName + "." + m.MethodName
			r.methodsByQual[qual] = append(r.methodsByQual[qual], methodEntry{id: m.ID, file: f.File, className: m.ClassName})
			r.methodsByName[m.MethodName] = append(r.methodsByName[m.MethodName], methodEntry{id: m.ID, file: f.File, className: m.ClassName})
		}
		for varName, className := range f.InstanceMapping {
			r.instanceGlobal[varName] = className
		}
	}
	return r
}

func appendUnique(entries []functionEntry, e functionEntry) []functionEntry {
	for _, existing := range entries {
		if existing.id == e.id {
			return entries
		}
	}
	return append(entries, e)
}

// Resolver runs Pass 2 over every file's IR.
type Resolver struct {
	root  string
	cfg   Config
	regs  *Registries
	files map[string]*extract.FileIR // by relative path, for import-target lookups
}

// New builds a resolver over the given project root and file set.
// files should be in the same deterministic order used to build
// Registries.
func New(root string, cfg Config, files []*extract.FileIR) *Resolver {
	byPath := make(map[string]*extract.FileIR, len(files))
	for _, f := range files {
		byPath[f.File] = f
	}
	return &Resolver{root: root, cfg: cfg, regs: BuildRegistries(files), files: byPath}
}

// Resolve resolves every call site across every file and returns the
// flattened list of resolved calls, in the same per-file, per-call
// order the calls were recorded in (deterministic given the same
// source tree, per spec §5).
func (r *Resolver) Resolve(files []*extract.FileIR) []ResolvedCall {
	var out []ResolvedCall
	for _, f := range files {
		for _, call := range f.Calls {
			out = append(out, r.resolveCall(f, call))
		}
	}
	return out
}

func (r *Resolver) resolveCall(origin *extract.FileIR, call extract.CallSite) ResolvedCall {
	rc := ResolvedCall{
		From:       call.From,
		OriginFile: origin.File,
		CalleeName: call.CalleeName,
		Receiver:   call.Receiver,
		Method:     call.Method,
		Type:       call.Type,
		Line:       call.Line,
	}

	// Rule 1: method-call via known instance.
	if call.Type == extract.CallMethod {
		if className, ok := origin.InstanceMapping[call.Receiver]; ok {
			if r.bindMethod(&rc, className, call.Method, origin.File) {
				return rc
			}
		}
		if className, ok := r.regs.instanceGlobal[call.Receiver]; ok {
			if r.bindMethod(&rc, className, call.Method, origin.File) {
				return rc
			}
		}
	}

	// Rule 2: this-qualified method call.
	if call.Type == extract.CallMethod && call.Receiver == "this" {
		if className, ok := classFromMethodID(call.From); ok {
			if r.bindMethod(&rc, className, call.Method, origin.File) {
				return rc
			}
		}
	}

	// Rule 3: external method call via a local import whose source is
	// external.
	if call.Type == extract.CallMethod {
		if imp, ok := origin.Imports[call.Receiver]; ok && !imp.Relative {
			rc.External = true
			rc.ModuleName = imp.Source
			return rc
		}
	}

	// Rule 4: resolution via import.
	if imp, ok := origin.Imports[call.CalleeName]; ok {
		if !imp.Relative {
			rc.External = true
			rc.ModuleName = imp.Source
			return rc
		}
		if targetRel, ok := location.ResolveRelativeImport(r.root, origin.File, imp.Source); ok {
			if target, ok := r.files[targetRel]; ok {
				if id, ok := bindViaImportKind(target, imp); ok {
					rc.Resolved = true
					rc.ResolvedID = id
					return rc
				}
			}
		}
		// Import present but target/binding not found: falls through
		// to same-file/global lookup below, matching the spec's
		// "if all rules fail, keep the placeholder" fallback rather
		// than special-casing a broken import.
	}

	// Rule 5: local same-file function, first by insertion order.
	if call.Type == extract.CallBare {
		for _, fn := range origin.Functions {
			if fn.Name == call.CalleeName {
				rc.Resolved = true
				rc.ResolvedID = fn.ID
				return rc
			}
		}
	}

	// Rule 6: global unique name.
	if call.Type == extract.CallBare {
		if entries, ok := r.regs.functionsByName[call.CalleeName]; ok {
			if len(entries) == 1 {
				rc.Resolved = true
				rc.ResolvedID = entries[0].id
				return rc
			}
			if len(entries) > 1 {
				rc.Ambiguous = true
			}
		}
	}

	// Rule 7: method call whose receiver's class couldn't be pinned
	// down by rules 1-3 falls back to a globally unique method name
	// (spec §4.3's "fallback methodName -> [methodNode] index").
	if call.Type == extract.CallMethod {
		if entries, ok := r.regs.methodsByName[call.Method]; ok {
			if len(entries) == 1 {
				rc.Resolved = true
				rc.ResolvedID = entries[0].id
				return rc
			}
			if len(entries) > 1 {
				rc.Ambiguous = true
			}
		}
	}

	return rc
}

// bindMethod applies the method-registry lookup with same-file
// preference, then first-by-insertion-order tie-break (spec's
// explicit Open-Question-preserved behavior).
func (r *Resolver) bindMethod(rc *ResolvedCall, className, methodName, originFile string) bool {
	qual := className + "." + methodName
	entries, ok := r.regs.methodsByQual[qual]
	if !ok || len(entries) == 0 {
		return false
	}
	chosen := entries[0]
	for _, e := range entries {
		if e.file == originFile {
			chosen = e
			break
		}
	}
	rc.Resolved = true
	rc.ResolvedID = chosen.id
	if len(entries) > 1 {
		rc.Ambiguous = false // a bound tie-break is not "ambiguous"; that label is reserved for calls left unresolved.
	}
	return true
}

func classFromMethodID(callerID string) (string, bool) {
	// class:<rel-path>:<Class>.<method>
	if !strings.HasPrefix(callerID, "class:") {
		return "", false
	}
	lastColon := strings.LastIndex(callerID, ":")
	if lastColon < 0 {
		return "", false
	}
	qual := callerID[lastColon+1:]
	dot := strings.LastIndex(qual, ".")
	if dot < 0 {
		return "", false
	}
	return qual[:dot], true
}

func bindViaImportKind(target *extract.FileIR, imp extract.Import) (string, bool) {
	switch imp.Kind {
	case extract.ImportNamed:
		if ids, ok := target.Exports[imp.ImportedName]; ok && len(ids) > 0 {
			return ids[0], true
		}
		for _, fn := range target.Functions {
			if fn.Name == imp.ImportedName {
				return fn.ID, true
			}
		}
		return "", false
	case extract.ImportDefault:
		if ids, ok := target.Exports["default"]; ok && len(ids) > 0 {
			return ids[0], true
		}
		for _, fn := range target.Functions {
			if fn.Name == "default" {
				return fn.ID, true
			}
		}
		return "", false
	case extract.ImportNamespace:
		return "", false
	default:
		return "", false
	}
}
