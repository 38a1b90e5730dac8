// Package visual 实现可视化生成流水线
// 分类可视化类型 -> 生成代码 -> 提取代码块 -> 渲染，失败后自我重试
package visual

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/infrastructure/log"
)

// maxAttempts 生成-渲染的最大尝试次数
const maxAttempts = 2

// Kind 可视化类型
type Kind string

const (
	KindBarChart  Kind = "bar_chart"
	KindLineChart Kind = "line_chart"
	KindPieChart  Kind = "pie_chart"
	KindTable     Kind = "table"
	KindDiagram   Kind = "diagram"
)

// validKinds 分类器输出白名单
var validKinds = map[Kind]bool{
	KindBarChart:  true,
	KindLineChart: true,
	KindPieChart:  true,
	KindTable:     true,
	KindDiagram:   true,
}

// ErrNoCodeBlock 模型输出中未找到代码块
var ErrNoCodeBlock = errors.New("no code block found in model output")

// Generator 文本生成模型
type Generator interface {
	Generate(ctx context.Context, prompt string, history []*chat.Message) (string, error)
}

// Renderer 在隔离环境中执行可视化代码并返回 PNG
type Renderer interface {
	Render(ctx context.Context, code, kind string) ([]byte, error)
}

// Pipeline 可视化生成流水线
type Pipeline struct {
	classifier Generator
	coder      Generator
	renderer   Renderer
	logger     *slog.Logger
}

// NewPipeline 创建可视化流水线
func NewPipeline(classifier, coder Generator, renderer Renderer) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		coder:      coder,
		renderer:   renderer,
		logger:     log.NewModuleLogger("visual", "pipeline"),
	}
}

// Run 为查询生成可视化图像
// 分类失败回退为 table；每次尝试使用相同的生成 prompt
func (p *Pipeline) Run(ctx context.Context, query string, docs []chat.Document, history []*chat.Message) ([]byte, error) {
	flat := flattenDocs(docs)
	kind := p.classify(ctx, query, flat)

	prompt := buildCodePrompt(kind, query, flat)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p.logger.Info("Visual generation attempt", "attempt", attempt, "kind", kind)

		output, err := p.coder.Generate(ctx, prompt, history)
		if err != nil {
			p.logger.Warn("Code generation failed", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		code, err := ExtractCode(output, kind)
		if err != nil {
			p.logger.Warn("No code block in model output", "attempt", attempt)
			lastErr = err
			continue
		}

		image, err := p.renderer.Render(ctx, code, renderKind(kind))
		if err != nil {
			p.logger.Warn("Render failed", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		return image, nil
	}

	return nil, fmt.Errorf("failed to generate visual after %d attempts: %w", maxAttempts, lastErr)
}

// classify 选择可视化类型，异常或非法输出回退为 table
func (p *Pipeline) classify(ctx context.Context, query, flatContext string) Kind {
	prompt := buildClassifyPrompt(query, flatContext)

	output, err := p.classifier.Generate(ctx, prompt, nil)
	if err != nil {
		p.logger.Warn("Visual type classification failed, falling back to table", "error", err)
		return KindTable
	}

	decision := Kind(strings.ToLower(strings.TrimSpace(output)))
	if !validKinds[decision] {
		return KindTable
	}
	return decision
}

// renderKind 可视化类型到渲染执行器的映射
func renderKind(kind Kind) string {
	if kind == KindDiagram {
		return "dot"
	}
	return "python"
}

// flattenDocs 将检索文档拼为 prompt 上下文
func flattenDocs(docs []chat.Document) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("--- From: %s ---\n%s", d.Source, d.Content))
	}
	return strings.Join(blocks, "\n\n")
}
