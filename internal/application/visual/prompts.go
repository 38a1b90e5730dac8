package visual

import "fmt"

// buildClassifyPrompt 可视化类型分类 prompt
func buildClassifyPrompt(query, flatContext string) string {
	return fmt.Sprintf(`Analyze this request and data to choose the best visual type.
Options: `+"`bar_chart`, `line_chart`, `pie_chart`, `table`, `diagram`"+`.

**Data:**
%s

**Request:**
"%s"

Respond with ONLY the type name.`, flatContext, query)
}

// buildCodePrompt 可视化代码生成 prompt
func buildCodePrompt(kind Kind, query, flatContext string) string {
	if kind == KindDiagram {
		return fmt.Sprintf("Write complete DOT code for Graphviz to create a diagram for: '%s'. Context: %s. Enclose in ```dot...```.", query, flatContext)
	}

	return fmt.Sprintf(`Write Python code to generate a %s using this data:
---
%s
---
Request: "%s"
Instructions:
1. Use ONLY Python in `+"```python...```"+`
2. Handle Arabic text with reshape_arabic_text()
3. No plt.show()/savefig()`, kind, flatContext, query)
}
