package steps

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/zeebo/xxh3"

	"github.com/aretw0/stepsheet/pkg/domain"
	"github.com/aretw0/stepsheet/pkg/schema"
)

// decodeParams validates raw against s and decodes it into out.
func decodeParams(kind domain.StepKind, s schema.Schema, raw map[string]any, out any) error {
	if err := schema.Validate(s, raw); err != nil {
		return &domain.ParameterError{Kind: kind, Key: schema.FirstKey(err), Reason: err.Error(), Err: err}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return &domain.ParameterError{Kind: kind, Reason: err.Error(), Err: err}
	}
	return nil
}

// EncodeParams turns typed parameters back into the raw map form.
func EncodeParams(p Params) (map[string]any, error) {
	var raw map[string]any
	if err := mapstructure.Decode(p, &raw); err != nil {
		return nil, fmt.Errorf("encode %s params: %w", p.Kind(), err)
	}
	return raw, nil
}

// stepID derives a stable id from the position and content of a step, so
// replaying the same log yields the same ids.
func stepID(position int, kind domain.StepKind, version int, p Params) string {
	raw, err := EncodeParams(p)
	if err != nil {
		raw = nil
	}
	body, _ := json.Marshal(raw)
	h := xxh3.HashString(fmt.Sprintf("%d|%s|%d|%s", position, kind, version, body))
	return fmt.Sprintf("%016x", h)
}

func datasetRef(i int) string { return fmt.Sprintf("dataset %d", i) }

func checkDataset(kind domain.StepKind, key string, prev *domain.State, i int) error {
	if i < 0 || i >= prev.Len() {
		return &domain.ParameterError{Kind: kind, Key: key, Reason: fmt.Sprintf("no %s", datasetRef(i))}
	}
	return nil
}

func dfName(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return datasetRef(i)
}
