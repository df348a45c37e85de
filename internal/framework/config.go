package framework

import "time"

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	QueueName    string        // 队列名称
	Concurrency  int           // 并发拉取数
	Timeout      time.Duration // 拉取超时
	TTR          time.Duration // Time-To-Run
	Rate         time.Duration // 速率限制（拉取间隔，0 表示不限）
	ErrorBackoff time.Duration // 错误退避时间
}

// ApplyDefaults 兜底零值配置（并发、超时、退避必须为正）
func (c *SubscriberConfig) ApplyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.TTR <= 0 {
		c.TTR = 60 * time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = time.Second
	}
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Concurrency int           // 并发处理数
	BufferSize  int           // inputChan 缓冲区大小
	Timeout     time.Duration // 单个消息处理超时
}

// ApplyDefaults 兜底零值配置
func (c *ProcessorConfig) ApplyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 16
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}
