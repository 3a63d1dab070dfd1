// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// FindByTaskType returns the registry entry for a task type, or nil.
func (r *ActivityRegistry) FindByTaskType(taskType string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i]
		}
	}
	return nil
}

// TaskTypes lists every task type declared in the registry.
func (r *ActivityRegistry) TaskTypes() []string {
	types := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		types = append(types, a.TaskType)
	}
	return types
}

// Validate checks that every registered task type is declared in the
// registry, and returns the declared task types that have no registered
// worker so the caller can warn about them at startup.
func (r *ActivityRegistry) Validate(registered []string) ([]string, error) {
	declared := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		declared[a.TaskType] = true
	}
	for _, t := range registered {
		if !declared[t] {
			return nil, fmt.Errorf("task type %q has a registered worker but no registry entry", t)
		}
	}
	have := make(map[string]bool, len(registered))
	for _, t := range registered {
		have[t] = true
	}
	var unimplemented []string
	for _, a := range r.Activities {
		if !have[a.TaskType] {
			unimplemented = append(unimplemented, a.TaskType)
		}
	}
	return unimplemented, nil
}
