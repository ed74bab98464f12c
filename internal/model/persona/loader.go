package persona

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LoadOptions 控制提示词文件的查找位置。
type LoadOptions struct {
	// Paths 为人格 ID 显式指定提示词文件。
	Paths map[string]string
	// SearchDirs 按顺序查找人格的默认文件名。
	SearchDirs []string
}

// DefaultSearchDirs 返回工作目录、./backend 以及可执行文件所在目录。
func DefaultSearchDirs() []string {
	dirs := []string{".", "backend"}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// Load 为每个内置人格从磁盘读取一次提示词，找不到可读的非空文件时保留内置提示词。
func Load(seed []Persona, opts LoadOptions, logger *zap.Logger) []Persona {
	if logger == nil {
		logger = zap.NewNop()
	}

	loaded := make([]Persona, 0, len(seed))
	for _, p := range seed {
		for _, candidate := range candidatePaths(p, opts) {
			contents, err := os.ReadFile(candidate)
			if err != nil {
				if !os.IsNotExist(err) {
					logger.Warn("unable to read system prompt file", zap.String("path", candidate), zap.Error(err))
				}
				continue
			}
			text := strings.TrimSpace(string(contents))
			if text == "" {
				continue
			}
			p.Prompt = text
			logger.Info("loaded system prompt", zap.String("persona", p.ID), zap.String("path", candidate))
			break
		}
		loaded = append(loaded, p)
	}
	return loaded
}

func candidatePaths(p Persona, opts LoadOptions) []string {
	var paths []string
	if explicit := strings.TrimSpace(opts.Paths[p.ID]); explicit != "" {
		paths = append(paths, explicit)
	}
	if p.PromptFile == "" {
		return paths
	}
	for _, dir := range opts.SearchDirs {
		paths = append(paths, filepath.Join(dir, p.PromptFile))
	}
	return paths
}
