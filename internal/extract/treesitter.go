package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

var walkers = map[grammar]func(*sitter.Node, []byte) []string{
	grammarPython:     pythonImports,
	grammarJavaScript: scriptImports,
	grammarTypeScript: scriptImports,
	grammarTSX:        scriptImports,
	grammarGo:         goImports,
	grammarRust:       rustImports,
}

// walk visits node and its descendants depth-first. visit returns false
// to skip a node's children.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), visit)
	}
}

// nodeText extracts the text content of a node from the source.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}

// pythonImports handles `import a.b` and `from x import y`. A bare
// relative `from . import y` yields ".y" since y may itself be a module.
func pythonImports(root *sitter.Node, content []byte) []string {
	var out []string
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				out = append(out, pythonModuleName(n.NamedChild(i), content))
			}
			return false
		case "import_from_statement":
			module := n.ChildByFieldName("module_name")
			text := nodeText(module, content)
			if module != nil && module.Type() == "relative_import" && strings.Trim(text, ".") == "" {
				names := pythonFromNames(n, content)
				if len(names) == 0 {
					out = append(out, text)
				}
				for _, name := range names {
					out = append(out, text+name)
				}
				return false
			}
			out = append(out, text)
			return false
		}
		return true
	})
	return out
}

// pythonModuleName returns the module of a dotted_name or aliased_import.
func pythonModuleName(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	if n.Type() == "aliased_import" {
		return nodeText(n.ChildByFieldName("name"), content)
	}
	if n.Type() == "dotted_name" {
		return nodeText(n, content)
	}
	return ""
}

// pythonFromNames lists the imported names of a from-import. The module
// itself is a relative_import node and yields nothing here.
func pythonFromNames(stmt *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		if name := pythonModuleName(stmt.NamedChild(i), content); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// scriptImports covers ES modules, re-exports, CommonJS require, dynamic
// import() and TypeScript's `import x = require()`.
func scriptImports(root *sitter.Node, content []byte) []string {
	var out []string
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement", "export_statement", "import_require_clause":
			if src := n.ChildByFieldName("source"); src != nil {
				out = append(out, unquote(nodeText(src, content)))
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn == nil {
				break
			}
			if fn.Type() == "import" || (fn.Type() == "identifier" && nodeText(fn, content) == "require") {
				if arg := firstStringArg(n.ChildByFieldName("arguments")); arg != nil {
					out = append(out, unquote(nodeText(arg, content)))
				}
			}
		}
		return true
	})
	return out
}

func firstStringArg(args *sitter.Node) *sitter.Node {
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	arg := args.NamedChild(0)
	switch arg.Type() {
	case "string":
		return arg
	case "template_string":
		// Only literal templates name a fixed module.
		if arg.NamedChildCount() == 0 {
			return arg
		}
	}
	return nil
}

func goImports(root *sitter.Node, content []byte) []string {
	var out []string
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_spec":
			out = append(out, unquote(nodeText(n.ChildByFieldName("path"), content)))
			return false
		case "function_declaration", "method_declaration", "type_declaration":
			return false
		}
		return true
	})
	return out
}

// rustImports expands `use` trees into one path per leaf and turns
// out-of-line `mod foo;` declarations into "self::foo".
func rustImports(root *sitter.Node, content []byte) []string {
	var out []string
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "use_declaration":
			out = append(out, rustUseTree(n.ChildByFieldName("argument"), "", content)...)
			return false
		case "mod_item":
			if n.ChildByFieldName("body") == nil {
				out = append(out, "self::"+nodeText(n.ChildByFieldName("name"), content))
				return false
			}
		}
		return true
	})
	return out
}

func rustUseTree(n *sitter.Node, prefix string, content []byte) []string {
	if n == nil {
		return nil
	}
	join := func(p string) string {
		if prefix == "" {
			return p
		}
		if p == "" || p == "self" {
			return prefix
		}
		return prefix + "::" + p
	}

	switch n.Type() {
	case "use_as_clause":
		return []string{join(nodeText(n.ChildByFieldName("path"), content))}
	case "use_wildcard":
		// `a::b::*` names the module a::b.
		text := strings.TrimSuffix(nodeText(n, content), "*")
		return []string{join(strings.TrimSuffix(text, "::"))}
	case "scoped_use_list":
		inner := join(nodeText(n.ChildByFieldName("path"), content))
		return rustUseTree(n.ChildByFieldName("list"), inner, content)
	case "use_list":
		var out []string
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = append(out, rustUseTree(n.NamedChild(i), prefix, content)...)
		}
		return out
	default:
		return []string{join(nodeText(n, content))}
	}
}
