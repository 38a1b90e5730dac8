package visual

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watira/backend/internal/domain/chat"
)

// scriptedGenerator 按调用次数返回预设输出
type scriptedGenerator struct {
	outputs []string
	err     error
	calls   int
	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, history []*chat.Message) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	idx := g.calls - 1
	if idx >= len(g.outputs) {
		idx = len(g.outputs) - 1
	}
	return g.outputs[idx], nil
}

// scriptedRenderer 按调用次数返回预设结果
type scriptedRenderer struct {
	images [][]byte
	errs   []error
	calls  int
	kinds  []string
}

func (r *scriptedRenderer) Render(ctx context.Context, code, kind string) ([]byte, error) {
	r.kinds = append(r.kinds, kind)
	idx := r.calls
	r.calls++
	if idx < len(r.errs) && r.errs[idx] != nil {
		return nil, r.errs[idx]
	}
	if idx < len(r.images) {
		return r.images[idx], nil
	}
	return r.images[len(r.images)-1], nil
}

func TestPipeline_SuccessFirstAttempt(t *testing.T) {
	classifier := &scriptedGenerator{outputs: []string{"bar_chart"}}
	coder := &scriptedGenerator{outputs: []string{"```python\nplot()\n```"}}
	renderer := &scriptedRenderer{images: [][]byte{[]byte("PNGDATA")}}

	p := NewPipeline(classifier, coder, renderer)

	image, err := p.Run(context.Background(), "ارسم الميزانية بيانيا", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("PNGDATA"), image)
	assert.Equal(t, 1, coder.calls)
	assert.Equal(t, []string{"python"}, renderer.kinds)
}

func TestPipeline_RetryAfterMissingCodeBlock(t *testing.T) {
	classifier := &scriptedGenerator{outputs: []string{"line_chart"}}
	coder := &scriptedGenerator{outputs: []string{
		"هذا شرح بدون كود",
		"```python\nplot()\n```",
	}}
	renderer := &scriptedRenderer{images: [][]byte{[]byte("PNG")}}

	p := NewPipeline(classifier, coder, renderer)

	image, err := p.Run(context.Background(), "رسم", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("PNG"), image)
	assert.Equal(t, 2, coder.calls, "首次无代码块应重试一次")

	// 两次尝试使用相同的 prompt
	require.Len(t, coder.prompts, 2)
	assert.Equal(t, coder.prompts[0], coder.prompts[1])
}

func TestPipeline_RetryAfterRenderFailure(t *testing.T) {
	classifier := &scriptedGenerator{outputs: []string{"pie_chart"}}
	coder := &scriptedGenerator{outputs: []string{"```python\nbad()\n```", "```python\ngood()\n```"}}
	renderer := &scriptedRenderer{
		errs:   []error{errors.New("NameError: bad is not defined"), nil},
		images: [][]byte{nil, []byte("PNG2")},
	}

	p := NewPipeline(classifier, coder, renderer)

	image, err := p.Run(context.Background(), "رسم دائري", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("PNG2"), image)
	assert.Equal(t, 2, renderer.calls)
}

func TestPipeline_FailsAfterTwoAttempts(t *testing.T) {
	classifier := &scriptedGenerator{outputs: []string{"bar_chart"}}
	coder := &scriptedGenerator{outputs: []string{"```python\nboom()\n```"}}
	renderer := &scriptedRenderer{
		errs: []error{errors.New("exec failed"), errors.New("exec failed")},
	}

	p := NewPipeline(classifier, coder, renderer)

	image, err := p.Run(context.Background(), "رسم", nil, nil)
	assert.Nil(t, image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, coder.calls)
}

func TestPipeline_InvalidClassificationFallsBackToTable(t *testing.T) {
	classifier := &scriptedGenerator{outputs: []string{"hologram"}}
	coder := &scriptedGenerator{outputs: []string{"```python\ntable()\n```"}}
	renderer := &scriptedRenderer{images: [][]byte{[]byte("PNG")}}

	p := NewPipeline(classifier, coder, renderer)

	_, err := p.Run(context.Background(), "اعرض البيانات", nil, nil)
	require.NoError(t, err)

	// 非法分类回退为 table，生成 prompt 会要求 table
	require.Len(t, coder.prompts, 1)
	assert.Contains(t, coder.prompts[0], "table")
}

func TestPipeline_DiagramUsesDotCode(t *testing.T) {
	classifier := &scriptedGenerator{outputs: []string{"diagram"}}
	coder := &scriptedGenerator{outputs: []string{"```dot\ndigraph G { a -> b }\n```"}}
	renderer := &scriptedRenderer{images: [][]byte{[]byte("PNG")}}

	p := NewPipeline(classifier, coder, renderer)

	_, err := p.Run(context.Background(), "مخطط تنظيمي", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"dot"}, renderer.kinds)
}

func TestExtractCode(t *testing.T) {
	code, err := ExtractCode("شرح\n```python\nx = 1\n```\nتذييل", KindBarChart)
	require.NoError(t, err)
	assert.Equal(t, "x = 1", code)

	code, err = ExtractCode("```dot\ndigraph G {}\n```", KindDiagram)
	require.NoError(t, err)
	assert.Equal(t, "digraph G {}", code)

	// python 块不满足 diagram 需求
	_, err = ExtractCode("```python\nx = 1\n```", KindDiagram)
	assert.ErrorIs(t, err, ErrNoCodeBlock)

	_, err = ExtractCode("بدون كود", KindTable)
	assert.ErrorIs(t, err, ErrNoCodeBlock)

	// 空代码块视为未找到
	_, err = ExtractCode("```python\n\n```", KindTable)
	assert.ErrorIs(t, err, ErrNoCodeBlock)
}

func TestFlattenDocs(t *testing.T) {
	flat := flattenDocs([]chat.Document{
		{Source: "الكتاب السنوي 2018", Content: "الميزانية 100"},
		{Source: "تقرير", Content: "تفاصيل"},
	})

	assert.True(t, strings.HasPrefix(flat, "--- From: الكتاب السنوي 2018 ---"))
	assert.Contains(t, flat, "الميزانية 100")
	assert.Contains(t, flat, "--- From: تقرير ---")
}
