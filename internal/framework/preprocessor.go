package framework

import (
	"context"
	"fmt"
)

// Stage 函数链上的命名阶段
// 名字会出现在错误链里，便于定位失败环节
type Stage struct {
	Name string
	Fn   ProcessorFunc
}

// PreProcessor 函数链处理器
type PreProcessor struct {
	stages []Stage
}

// NewPreProcessor 创建函数链处理器
func NewPreProcessor(stages []Stage) *PreProcessor {
	return &PreProcessor{
		stages: stages,
	}
}

// Run 按序执行各阶段
// 任一阶段返回 error 则立即停止
func (p *PreProcessor) Run(ctx context.Context) error {
	for _, stage := range p.stages {
		if err := stage.Fn(ctx); err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.Name, err)
		}
	}
	return nil
}
