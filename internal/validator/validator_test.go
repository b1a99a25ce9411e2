package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/dsl"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/steps"
)

func TestValidateAnalysis(t *testing.T) {
	reg := registry.MustNew()

	// 1. Scenario A: Valid Analysis
	// concat appends dataset 2, which the formula then refers to.
	valid := dsl.New("valid").
		Concat(steps.JoinOuter, true, 0, 1).
		Formula(2, "B", "=A + 1").
		MustBuild()
	if err := ValidateAnalysis(reg, valid, 2); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}

	// 2. Scenario B: Dangling Dataset
	// Without the concat, dataset 2 never exists.
	dangling := dsl.New("dangling").Formula(2, "B", "=A").MustBuild()
	err := ValidateAnalysis(reg, dangling, 2)
	if err == nil {
		t.Fatal("Scenario B (Dangling) expected error, got nil")
	}
	if !strings.Contains(err.Error(), "refers to dataset 2, only 2 exist") {
		t.Errorf("Scenario B error mismatch: %v", err)
	}

	// 3. Scenario C: Dataset checks can be skipped
	if err := ValidateAnalysis(reg, dangling, SkipDatasetChecks); err != nil {
		t.Errorf("Scenario C (Skip) failed: %v", err)
	}

	// 4. Scenario D: Every problem is reported
	broken := &domain.Analysis{Name: "broken", Steps: []domain.StepRecord{
		{Kind: "pivot"},
		{Kind: steps.KindConcat, Version: 9, Params: map[string]any{}},
		{Kind: steps.KindChangeColumnDtype, Version: 1, Params: map[string]any{"datasetIndex": float64(0), "extra": true}},
	}}
	err = ValidateAnalysis(reg, broken, 1)
	if err == nil {
		t.Fatal("Scenario D (Broken) expected error, got nil")
	}
	msg := err.Error()
	for _, want := range []string{
		"found 5 errors",
		"step 0: unknown kind 'pivot'",
		"step 1: concat version 9, current is 1",
		`field "columnId": required`,
		`field "targetType": required`,
		`field "extra": unknown parameter`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Scenario D missing %q in:\n%s", want, msg)
		}
	}
}

func TestDatasetRefs(t *testing.T) {
	refs := datasetRefs(map[string]any{"datasetIndexes": []any{float64(0), 3}})
	if len(refs) != 2 || refs[0] != 0 || refs[1] != 3 {
		t.Errorf("unexpected refs: %v", refs)
	}
}
