package visual

import (
	"regexp"
	"strings"
)

var (
	pythonBlockRe = regexp.MustCompile("(?s)```python(.*?)```")
	dotBlockRe    = regexp.MustCompile("(?s)```dot(.*?)```")
)

// ExtractCode 从模型输出中提取第一个对应语言的代码块
func ExtractCode(output string, kind Kind) (string, error) {
	re := pythonBlockRe
	if kind == KindDiagram {
		re = dotBlockRe
	}

	match := re.FindStringSubmatch(output)
	if match == nil {
		return "", ErrNoCodeBlock
	}

	code := strings.TrimSpace(match[1])
	if code == "" {
		return "", ErrNoCodeBlock
	}
	return code, nil
}
