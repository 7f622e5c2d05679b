// Package extractor 将预处理后的 HTML 文档转换为 Markdown。
//
// 文档以 URI 表示。没有页面脚本的 file:// 文档直接读取，其余情况先在
// headless 浏览器中打开，由脚本改写 DOM 后再转换。
package extractor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"tab2md/internal/browser"
	"tab2md/internal/logger"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config 转换配置
type Config struct {
	MinWordCount    int      // 少于该词数的文本块被丢弃
	ExcludedTags    []string // 转换前整体移除
	ContentSelector string   // 内容根节点，为空时使用 body
	PageScript      string   // 转换前在页面中执行的函数
}

// Result 转换结果
type Result struct {
	Success      bool
	Markdown     string
	ErrorMessage string
}

func failure(format string, args ...any) Result {
	return Result{ErrorMessage: fmt.Sprintf(format, args...)}
}

// Extractor 按 cfg 转换 source 处的文档
type Extractor interface {
	Extract(ctx context.Context, source string, cfg Config) Result
}

// Engine 默认的 Extractor 实现
type Engine struct {
	Browser     browser.Config
	LoadTimeout time.Duration
	Log         *zap.Logger

	converter *Converter
}

// NewEngine 创建新的 Engine 实例，需要时才启动 headless 浏览器
func NewEngine(bin string, log *zap.Logger) *Engine {
	log = logger.OrNop(log)
	return &Engine{
		Browser:     browser.Config{Headless: true, Bin: bin},
		LoadTimeout: 15 * time.Second,
		Log:         log,
		converter:   NewConverter(log),
	}
}

// Extract 实现 Extractor 接口
func (e *Engine) Extract(ctx context.Context, source string, cfg Config) Result {
	var html string
	var err error

	if path, ok := localPath(source); ok && cfg.PageScript == "" {
		e.Log.Debug("reading document directly", zap.String("path", path))
		var data []byte
		data, err = os.ReadFile(path)
		html = string(data)
	} else {
		html, err = e.render(ctx, source, cfg.PageScript)
	}
	if err != nil {
		return failure("%v", err)
	}

	markdown, err := e.converter.Convert(html, cfg)
	if err != nil {
		return failure("%v", err)
	}
	return Result{Success: true, Markdown: markdown}
}

// render 在禁用页面脚本的情况下打开 source，执行 script 并返回处理后的 DOM
func (e *Engine) render(ctx context.Context, source, script string) (string, error) {
	b, err := browser.New(e.Browser)
	if err != nil {
		return "", err
	}
	defer b.Close()

	page, err := b.NewPage("about:blank")
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	page = page.Context(ctx)

	if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(page); err != nil {
		return "", fmt.Errorf("failed to disable page scripts: %w", err)
	}

	if err := page.Navigate(source); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", source, err)
	}
	// 通过 <base> 引用的远程资源可能一直加载不完
	if err := page.Timeout(e.LoadTimeout).WaitLoad(); err != nil {
		e.Log.Warn("document did not finish loading, continuing", zap.Error(err))
	}

	if script != "" {
		if _, err := page.Eval(script); err != nil {
			return "", fmt.Errorf("page script failed: %w", err)
		}
	}

	res, err := page.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("failed to get rendered HTML: %w", err)
	}
	return res.Value.Str(), nil
}

// localPath 返回 file:// URI 对应的文件路径
func localPath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	path := u.Path
	// Windows 下 file:///C:/x 会解析为 /C:/x
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return strings.ReplaceAll(path, "/", string(os.PathSeparator)), true
}
