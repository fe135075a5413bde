package schema

import (
	"encoding/json"
	"fmt"

	"github.com/metamesh-ai/metamesh/score"
)

// DecodeAssessment extracts, validates and decodes a complexity assessment
// from raw model text. agent attributes contract violations.
func DecodeAssessment(agent, raw string) (score.Assessment, error) {
	var out score.Assessment
	data, err := extractAndValidate(agent, ContractAssessment, raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode assessment from %q: %w", agent, err)
	}
	return out, nil
}

// DecodeEvaluation extracts, validates and decodes a solution evaluation.
func DecodeEvaluation(agent, raw string) (score.Evaluation, error) {
	var out score.Evaluation
	data, err := extractAndValidate(agent, ContractEvaluation, raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode evaluation from %q: %w", agent, err)
	}
	return out, nil
}

// DecodeRefinement extracts, validates and decodes a refinement result.
func DecodeRefinement(agent, raw string) (score.RefinementResult, error) {
	var out score.RefinementResult
	data, err := extractAndValidate(agent, ContractRefinement, raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode refinement result from %q: %w", agent, err)
	}
	return out, nil
}

// DecodeConsensus extracts, validates and decodes an ensemble report.
func DecodeConsensus(agent, raw string) (score.Consensus, error) {
	var out score.Consensus
	data, err := extractAndValidate(agent, ContractEnsemble, raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode ensemble report from %q: %w", agent, err)
	}
	return out, nil
}

func extractAndValidate(agent string, contract Contract, raw string) ([]byte, error) {
	data, err := ExtractObject(raw)
	if err != nil {
		return nil, fmt.Errorf("agent %q %s output: %w", agent, contract, err)
	}
	if err := Validate(agent, contract, data); err != nil {
		return nil, err
	}
	return data, nil
}
