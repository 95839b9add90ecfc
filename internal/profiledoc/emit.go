package profiledoc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// field is one key/value pair with the value already rendered as TOML
type field struct {
	key   string
	value string
}

// tomlWriter emits TOML with keys in caller order and inline tables where asked
type tomlWriter struct {
	buf bytes.Buffer
}

func (w *tomlWriter) pair(f field) {
	fmt.Fprintf(&w.buf, "%s = %s\n", tomlKey(f.key), f.value)
}

func (w *tomlWriter) pairs(fields []field) {
	for _, f := range fields {
		w.pair(f)
	}
}

func (w *tomlWriter) header(name string, array bool) {
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	if array {
		fmt.Fprintf(&w.buf, "[[%s]]\n", name)
	} else {
		fmt.Fprintf(&w.buf, "[%s]\n", name)
	}
}

func (w *tomlWriter) Bytes() []byte {
	return w.buf.Bytes()
}

func tomlKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, r := range k {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return tomlString(k)
		}
	}
	return k
}

func tomlString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func tomlBool(v bool) string {
	return strconv.FormatBool(v)
}

func inlineTable(fields []field) string {
	if len(fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = tomlKey(f.key) + " = " + f.value
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func stringArray(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = tomlString(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func depsArray(deps []domain.Dependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = inlineTable([]field{
			{"id", tomlString(d.ID)},
			{"optional", tomlBool(d.Optional)},
		})
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func initializerTable(init *domain.Initializer) string {
	if init.Function == "" && init.Delay != nil {
		return inlineTable([]field{{"delay", inlineTable([]field{{"ms", strconv.FormatInt(init.Delay.MS, 10)}})}})
	}
	return inlineTable([]field{{"function", tomlString(init.Function)}})
}

// nativeFields renders a native entry; only non-default values are included
func nativeFields(n NativeEntry) []field {
	var fields []field
	if n.Path != "" {
		fields = append(fields, field{"path", tomlString(n.Path)})
	}
	if n.Optional {
		fields = append(fields, field{"optional", "true"})
	}
	if n.LoadEarly {
		fields = append(fields, field{"load_early", "true"})
	}
	if n.Initializer != nil {
		fields = append(fields, field{"initializer", initializerTable(n.Initializer)})
	}
	if n.Finalizer != "" {
		fields = append(fields, field{"finalizer", tomlString(n.Finalizer)})
	}
	switch len(n.Config) {
	case 0:
	case 1:
		fields = append(fields, field{"config", tomlString(n.Config[0])})
	default:
		fields = append(fields, field{"config", stringArray(n.Config)})
	}
	if len(n.LoadBefore) > 0 {
		fields = append(fields, field{"load_before", depsArray(n.LoadBefore)})
	}
	if len(n.LoadAfter) > 0 {
		fields = append(fields, field{"load_after", depsArray(n.LoadAfter)})
	}
	if n.NexusLink != "" {
		fields = append(fields, field{"nexus_link", tomlString(n.NexusLink)})
	}
	return fields
}

func packageFields(p PackageEntry, withID bool) []field {
	var fields []field
	if withID {
		fields = append(fields, field{"id", tomlString(p.ID)})
	}
	fields = append(fields, field{"path", tomlString(p.Path)})
	if len(p.LoadBefore) > 0 {
		fields = append(fields, field{"load_before", depsArray(p.LoadBefore)})
	}
	if len(p.LoadAfter) > 0 {
		fields = append(fields, field{"load_after", depsArray(p.LoadAfter)})
	}
	return fields
}

func globalFields(d *Document, withLaunch bool) []field {
	var fields []field
	if withLaunch && d.Launch != "" {
		fields = append(fields, field{"launch", tomlString(d.Launch)})
	}
	if d.Savefile != "" {
		fields = append(fields, field{"savefile", tomlString(d.Savefile)})
	}
	if d.StartOnline != nil {
		fields = append(fields, field{"start_online", tomlBool(*d.StartOnline)})
	}
	if d.DisableArxan != nil {
		fields = append(fields, field{"disable_arxan", tomlBool(*d.DisableArxan)})
	}
	return fields
}
