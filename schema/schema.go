package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Contract names the four model output shapes.
type Contract string

const (
	ContractAssessment Contract = "assessment"
	ContractEvaluation Contract = "evaluation"
	ContractRefinement Contract = "refinement"
	ContractEnsemble   Contract = "ensemble"
)

// ErrContractViolation is the sentinel wrapped by all validation failures.
var ErrContractViolation = errors.New("output contract violation")

// Issue is a single schema violation located by JSON pointer.
type Issue struct {
	Pointer string
	Message string
}

// ContractError reports which agent produced output violating which contract,
// with every located violation.
type ContractError struct {
	Agent    string
	Contract Contract
	Issues   []Issue
}

func (e *ContractError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		ptr := issue.Pointer
		if ptr == "" {
			ptr = "#"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", ptr, issue.Message))
	}
	return fmt.Sprintf("agent %q violated %s contract: %s", e.Agent, e.Contract, strings.Join(parts, "; "))
}

func (e *ContractError) Unwrap() error { return ErrContractViolation }

var (
	compileOnce sync.Once
	compiled    map[Contract]*jsonschema.Schema
	compileErr  error
)

func compile() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiled = map[Contract]*jsonschema.Schema{}
		for _, c := range []Contract{ContractAssessment, ContractEvaluation, ContractRefinement, ContractEnsemble} {
			name := fmt.Sprintf("schemas/%s.json", c)
			f, err := schemaFS.Open(name)
			if err != nil {
				compileErr = fmt.Errorf("open embedded schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, f); err != nil {
				_ = f.Close()
				compileErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
			_ = f.Close()
			s, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[c] = s
		}
	})
	return compileErr
}

// Validate checks data (a JSON object) against the named contract. agent is
// carried into the error for attribution.
func Validate(agent string, contract Contract, data []byte) error {
	if err := compile(); err != nil {
		return err
	}
	s, ok := compiled[contract]
	if !ok {
		return fmt.Errorf("unknown contract %q", contract)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ContractError{Agent: agent, Contract: contract, Issues: []Issue{{Message: fmt.Sprintf("not valid JSON: %v", err)}}}
	}

	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ContractError{Agent: agent, Contract: contract, Issues: collectIssues(ve)}
		}
		return &ContractError{Agent: agent, Contract: contract, Issues: []Issue{{Message: err.Error()}}}
	}

	return nil
}

// collectIssues flattens a jsonschema validation tree into located leaf issues.
func collectIssues(ve *jsonschema.ValidationError) []Issue {
	if len(ve.Causes) == 0 {
		return []Issue{{Pointer: ve.InstanceLocation, Message: ve.Message}}
	}
	var out []Issue
	for _, cause := range ve.Causes {
		out = append(out, collectIssues(cause)...)
	}
	return out
}
