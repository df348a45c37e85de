package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nhoinets2/scan-match-sub001/internal/outfit"
	"github.com/nhoinets2/scan-match-sub001/pkg/logger"
)

var (
	testcasePath = flag.String("testcase", "./tools/fasttest/cases/match.json", "测试用例路径")
	verbose      = flag.Bool("verbose", false, "打印完整渲染契约 JSON")
)

// TestCase 测试用例结构：管线输入 + 可选断言
type TestCase struct {
	Name        string                          `json:"name"`
	Scan        outfit.ScanItem                 `json:"scan"`
	Wardrobe    []outfit.Item                   `json:"wardrobe"`
	Evaluations []outfit.PairEvaluation         `json:"evaluations"`
	Evaluated   *bool                           `json:"evaluated"` // 缺省 true
	Trust       *outfit.TrustOutcome            `json:"trust"`
	Safety      map[string]outfit.SafetyVerdict `json:"safety"`
	Expect      *Expectation                    `json:"expect"`
}

// Expectation 断言（只校验设置了的字段）
type Expectation struct {
	UIState     string `json:"ui_state,omitempty"`
	HighMatches *int   `json:"high_matches,omitempty"`
	NearMatches *int   `json:"near_matches,omitempty"`
	HiddenCount *int   `json:"hidden_count,omitempty"`
	RescanCTA   *bool  `json:"rescan_cta,omitempty"`
}

func main() {
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("  FastTest - 决策管线快速回放工具")
	fmt.Println("========================================")

	// 1. 加载测试用例
	testCases, err := loadTestCases(*testcasePath)
	if err != nil {
		fmt.Printf("❌ Failed to load test cases: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Loaded %d test cases from %s\n", len(testCases), *testcasePath)

	// 2. 创建管线引擎（无外部依赖，直接回放）
	engine := outfit.NewEngine(nil, logger.Nop{})

	// 3. 执行测试用例
	fmt.Println("\n========================================")
	fmt.Println("  Running Test Cases")
	fmt.Println("========================================")

	successCount := 0
	failureCount := 0

	for i, tc := range testCases {
		fmt.Printf("\n[Test %d/%d] %s\n", i+1, len(testCases), tc.Name)
		fmt.Println("----------------------------------------")

		startTime := time.Now()
		err = runTestCase(engine, tc)
		duration := time.Since(startTime)

		if err != nil {
			fmt.Printf("❌ FAILED: %v\n", err)
			fmt.Printf("⏱️  Duration: %v\n", duration)
			failureCount++
		} else {
			fmt.Printf("✅ PASSED\n")
			fmt.Printf("⏱️  Duration: %v\n", duration)
			successCount++
		}
	}

	// 4. 输出测试汇总
	fmt.Println("\n========================================")
	fmt.Println("  Test Summary")
	fmt.Println("========================================")
	fmt.Printf("Total: %d\n", len(testCases))
	fmt.Printf("Passed: %d ✅\n", successCount)
	fmt.Printf("Failed: %d ❌\n", failureCount)

	if failureCount > 0 {
		os.Exit(1)
	}
}

// loadTestCases 从 JSON 文件加载测试用例
func loadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testcase file: %w", err)
	}

	var testCases []TestCase
	if err := json.Unmarshal(data, &testCases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal testcase: %w", err)
	}

	return testCases, nil
}

// runTestCase 跑一遍管线并校验断言
func runTestCase(engine *outfit.Engine, tc TestCase) error {
	ctx := context.Background()

	evaluated := true
	if tc.Evaluated != nil {
		evaluated = *tc.Evaluated
	}

	result := engine.Evaluate(ctx, outfit.EvaluateInput{
		Scan:        tc.Scan,
		Wardrobe:    tc.Wardrobe,
		Evaluations: tc.Evaluations,
		Evaluated:   evaluated,
		Trust:       tc.Trust,
		Safety:      tc.Safety,
	})

	printResult(result)

	if *verbose {
		raw, _ := json.MarshalIndent(result, "  ", "  ")
		fmt.Printf("  %s\n", raw)
	}

	return checkExpectation(tc.Expect, result)
}

// printResult 打印决策结果概要
func printResult(result *outfit.Result) {
	fmt.Printf("  UIState=%s, High=%d, Near=%d, Hidden=%d\n",
		result.Render.UIState, result.Stats.HighCount, result.Stats.NearCount, result.Stats.HiddenCount)
	fmt.Printf("  HighTab: visible=%v, matches=%d, outfits=%d\n",
		result.HighTab.Visible, len(result.HighTab.Matches), len(result.HighTab.Outfits))
	fmt.Printf("  NearTab: visible=%v, matches=%d, outfits=%d\n",
		result.NearTab.Visible, len(result.NearTab.Matches), len(result.NearTab.Outfits))

	if result.Render.Suggestions.Visible {
		fmt.Printf("  Suggestions (%s):\n", result.Render.Suggestions.Mode)
		for _, b := range result.Render.Suggestions.Bullets {
			fmt.Printf("    - %s\n", b.Text)
		}
	}
	if result.Render.ShowRescanCTA {
		fmt.Println("  → Rescan CTA shown")
	}
}

// checkExpectation 逐字段校验断言
func checkExpectation(expect *Expectation, result *outfit.Result) error {
	if expect == nil {
		return nil
	}

	if expect.UIState != "" && string(result.Render.UIState) != expect.UIState {
		return fmt.Errorf("ui_state mismatch: want %s, got %s", expect.UIState, result.Render.UIState)
	}
	if expect.HighMatches != nil && len(result.HighTab.Matches) != *expect.HighMatches {
		return fmt.Errorf("high matches mismatch: want %d, got %d", *expect.HighMatches, len(result.HighTab.Matches))
	}
	if expect.NearMatches != nil && len(result.NearTab.Matches) != *expect.NearMatches {
		return fmt.Errorf("near matches mismatch: want %d, got %d", *expect.NearMatches, len(result.NearTab.Matches))
	}
	if expect.HiddenCount != nil && result.Stats.HiddenCount != *expect.HiddenCount {
		return fmt.Errorf("hidden count mismatch: want %d, got %d", *expect.HiddenCount, result.Stats.HiddenCount)
	}
	if expect.RescanCTA != nil && result.Render.ShowRescanCTA != *expect.RescanCTA {
		return fmt.Errorf("rescan cta mismatch: want %v, got %v", *expect.RescanCTA, result.Render.ShowRescanCTA)
	}

	return nil
}
