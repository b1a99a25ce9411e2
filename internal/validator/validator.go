package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/registry"
	"github.com/aretw0/stepsheet/pkg/schema"
	"github.com/aretw0/stepsheet/pkg/steps"
)

// SkipDatasetChecks disables dataset reference checks in ValidateAnalysis.
const SkipDatasetChecks = -1

// ValidateAnalysis checks an analysis without the data it runs on: every
// record must name a known kind at its current version and carry
// parameters that fit the kind's schema. When datasets is not
// SkipDatasetChecks it is the number of initial datasets, and every
// dataset reference must point at one that exists by then.
func ValidateAnalysis(reg *registry.Registry, analysis *domain.Analysis, datasets int) error {
	var errors []string
	count := datasets

	for i, rec := range analysis.Steps {
		perf, err := reg.Lookup(rec.Kind)
		if err != nil {
			errors = append(errors, fmt.Sprintf("step %d: unknown kind '%s'", i, rec.Kind))
			continue
		}
		if rec.Version != 0 && rec.Version != perf.Version() {
			errors = append(errors, fmt.Sprintf("step %d: %s version %d, current is %d", i, rec.Kind, rec.Version, perf.Version()))
			continue
		}
		if err := schema.Validate(perf.Schema(), rec.Params); err != nil {
			problems := schema.ValidationErrors(err)
			if len(problems) == 0 {
				problems = []error{err}
			}
			for _, e := range problems {
				errors = append(errors, fmt.Sprintf("step %d: %s: %v", i, rec.Kind, e))
			}
			continue
		}

		if datasets == SkipDatasetChecks {
			continue
		}
		for _, ref := range datasetRefs(rec.Params) {
			if ref < 0 || ref >= count {
				errors = append(errors, fmt.Sprintf("step %d: %s refers to dataset %d, only %d exist", i, rec.Kind, ref, count))
			}
		}
		if rec.Kind == steps.KindConcat {
			count++
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

// datasetRefs collects the dataset indexes a record names. Values have
// already passed schema validation, so they are whole numbers.
func datasetRefs(params map[string]any) []int {
	var refs []int
	if v, ok := params["datasetIndex"]; ok {
		if n, ok := asInt(v); ok {
			refs = append(refs, n)
		}
	}
	if v, ok := params["datasetIndexes"]; ok {
		switch list := v.(type) {
		case []any:
			for _, item := range list {
				if n, ok := asInt(item); ok {
					refs = append(refs, n)
				}
			}
		case []int:
			refs = append(refs, list...)
		}
	}
	return refs
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
