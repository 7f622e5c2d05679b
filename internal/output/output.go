// Package output 负责结果文件的命名与写入。
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer 将结果写入同一个目录
type Writer struct {
	OutputDir     string
	MaxNameLength int
}

// NewWriter 创建新的 Writer 实例，目录在首次写入时创建
func NewWriter(outputDir string, maxNameLength int) *Writer {
	return &Writer{OutputDir: outputDir, MaxNameLength: maxNameLength}
}

// Write 以 rawURL 生成的文件名保存 data，返回文件路径
func (w *Writer) Write(rawURL string, data []byte, ext string) (string, error) {
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(w.OutputDir, Filename(rawURL, w.MaxNameLength)+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// Filename 将 URL 转换为文件名：去掉协议部分，ASCII 字母和数字以外的字符
// 替换为下划线，结果截断到 max 个字符。
// 示例：https://example.com/path?q=1 → example_com_path_q_1
func Filename(rawURL string, max int) string {
	if i := strings.Index(rawURL, "://"); i >= 0 {
		rawURL = rawURL[i+3:]
	}

	name := sanitize(rawURL)
	if max > 0 && len(name) > max {
		name = name[:max]
	}
	if name == "" {
		return "page"
	}
	return name
}

// sanitize 将非字母数字字符替换为下划线
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
