package browser

import (
	"fmt"

	"tab2md/internal/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config 本地启动浏览器的配置
type Config struct {
	Headless bool
	Bin      string // 浏览器可执行文件，为空时自动查找
}

// Browser 封装本进程启动并持有的 rod.Browser 实例
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// New 启动浏览器并建立连接
func New(cfg Config) (*Browser, error) {
	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to launched browser: %w", err)
	}

	return &Browser{
		browser:  b,
		launcher: l,
	}, nil
}

// NewPage 在 url 处打开新的浏览器页面
func (b *Browser) NewPage(url string) (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Close 关闭浏览器并清理 launcher 留下的文件
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}

// EnsureInstalled 确保提取所需的浏览器引擎可用，找不到系统浏览器时自动下载。
// 可重复调用。
func EnsureInstalled(log *zap.Logger) (string, error) {
	log = logger.OrNop(log)
	if path, ok := launcher.LookPath(); ok {
		log.Debug("using system browser", zap.String("path", path))
		return path, nil
	}

	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("failed to install browser engine: %w", err)
	}
	log.Info("browser engine installed", zap.String("path", path))
	return path, nil
}
