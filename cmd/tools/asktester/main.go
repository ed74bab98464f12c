package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/analysis/citation"
	"github.com/sasusavage/SourceScout/internal/analysis/cutoff"
	"github.com/sasusavage/SourceScout/internal/config"
	"github.com/sasusavage/SourceScout/internal/model/chat"
	"github.com/sasusavage/SourceScout/internal/model/persona"
	"github.com/sasusavage/SourceScout/internal/service/ai"
	"github.com/sasusavage/SourceScout/internal/service/upstream"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	mode := flag.String("mode", "chat", "模式: chat、web 或 normalize（离线处理一份上游响应 JSON）")
	query := flag.String("q", "", "问题文本 (chat/web)")
	personality := flag.String("personality", "", "人格: pidgin 或 fluent，默认使用配置")
	model := flag.String("model", "", "模型名，默认使用 OPENAI_MODEL")
	input := flag.String("in", "-", "normalize 模式下的上游响应文件，- 表示标准输入")
	timeout := flag.Duration("timeout", 90*time.Second, "请求超时时间")
	verbose := flag.Bool("v", false, "输出上游调用日志")

	flag.Parse()

	if *mode == "normalize" {
		if err := runNormalize(*input); err != nil {
			log.Fatalf("normalize 失败: %v", err)
		}
		return
	}

	if *query == "" {
		flag.Usage()
		log.Fatal("请通过 -q 指定问题")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	personas := persona.Load(persona.Seed(), persona.LoadOptions{
		Paths: map[string]string{
			persona.Pidgin: cfg.Persona.PidginPath,
			persona.Fluent: cfg.Persona.FluentPath,
		},
		SearchDirs: persona.DefaultSearchDirs(),
	}, logger)

	svc := ai.NewService(
		upstream.NewChatDispatcher(ctx, cfg, logger),
		upstream.NewSearchDispatcher(cfg.Upstream, logger),
		persona.NewMemoryStore(personas, cfg.Persona.Default),
		cfg.Upstream,
		logger,
	)

	if cutoff.Detect(*query) && ai.NormalizeMode(*mode) == ai.ModeChat {
		log.Printf("[INFO] 问题涉及 %s 之后的时间，chat 模式将直接返回固定回复", cutoff.Label)
	}

	start := time.Now()
	answer, err := svc.Ask(ctx, ai.AskInput{
		Query:       *query,
		Model:       *model,
		Personality: *personality,
		Mode:        *mode,
	})
	if err != nil {
		log.Fatalf("请求失败: %v", err)
	}

	log.Printf("[INFO] 耗时 %s", time.Since(start).Round(time.Millisecond))
	printJSON(answer)
}

// runNormalize 对保存下来的上游响应执行与服务端相同的规范化流程。
func runNormalize(path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if !json.Valid(raw) {
		return fmt.Errorf("input is not valid JSON")
	}

	completion := &upstream.Completion{Provider: "file", Raw: raw}
	printJSON(&chat.Answer{
		Answer:    citation.StripInline(completion.Answer()),
		Citations: citation.Normalize(completion.Citations()),
	})
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("输出失败: %v", err)
	}
}
