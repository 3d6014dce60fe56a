package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mcpchat/mcpchat/internal/schema"
	"github.com/mcpchat/mcpchat/internal/tools"
)

var sanitizeRe = regexp.MustCompile(`[^a-z0-9_]`)

// toolTable maps the names the model sees to tool handles.
type toolTable struct {
	names   []string
	byName  map[string]schema.Tool
	renamed map[string]string // exposed name -> original name, for renamed tools only
}

// exposeTools assigns every tool in list a unique model-facing name.
// Names that occur once are kept. Colliding names become <server>_<tool>;
// if that is still taken a numeric suffix is added.
func exposeTools(list *tools.ToolList) *toolTable {
	tbl := &toolTable{
		byName:  make(map[string]schema.Tool, list.Len()),
		renamed: make(map[string]string),
	}

	dup := make(map[string]bool)
	for _, n := range list.Duplicates() {
		dup[n] = true
	}

	all := list.All()
	// Unique names are claimed first so a namespaced name never shadows one.
	for _, t := range all {
		if !dup[t.Name()] {
			tbl.byName[t.Name()] = t
		}
	}
	for _, t := range all {
		if !dup[t.Name()] {
			tbl.names = append(tbl.names, t.Name())
			continue
		}
		name := tbl.claim(namespaced(t), t)
		tbl.renamed[name] = t.Name()
		tbl.names = append(tbl.names, name)
	}
	return tbl
}

func (tbl *toolTable) claim(base string, t schema.Tool) string {
	name := base
	for n := 2; ; n++ {
		if _, taken := tbl.byName[name]; !taken {
			tbl.byName[name] = t
			return name
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

// namespaced returns <server>_<tool> for tools that know their server.
func namespaced(t schema.Tool) string {
	st, ok := t.(schema.SourcedTool)
	if !ok || st.Server() == "" {
		return t.Name()
	}
	return sanitize(st.Server()) + "_" + t.Name()
}

func sanitize(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "-", "_")
	s = sanitizeRe.ReplaceAllString(s, "_")

	// Collapse consecutive underscores.
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}

	return strings.Trim(s, "_")
}

// Get returns the tool exposed under name, or nil.
func (tbl *toolTable) Get(name string) schema.Tool { return tbl.byName[name] }

// Names returns exposed names in aggregate order.
func (tbl *toolTable) Names() []string { return append([]string(nil), tbl.names...) }

// Definitions returns the tools in OpenAI function-calling format under
// their exposed names.
func (tbl *toolTable) Definitions() []map[string]any {
	defs := make([]map[string]any, 0, len(tbl.names))
	for _, n := range tbl.names {
		defs = append(defs, tools.Definition(n, tbl.byName[n]))
	}
	return defs
}

// Build assembles an Agent from a provider, the aggregated tools and the
// loop settings. It performs no I/O.
func Build(provider schema.LLMProvider, list *tools.ToolList, settings schema.AgentSettings) *Agent {
	if settings.MaxIter <= 0 {
		settings.MaxIter = DefaultMaxIterations
	}
	if settings.Model == "" {
		settings.Model = provider.DefaultModel()
	}
	if list == nil {
		list = tools.NewToolList()
	}
	return &Agent{
		LoopRunner: newLoopRunner(provider, settings),
		tools:      exposeTools(list),
		newRunID:   newRunID,
	}
}

// ExposedNames returns the names the model would see for list, in order.
func ExposedNames(list *tools.ToolList) []string {
	return exposeTools(list).Names()
}
