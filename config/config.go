// Package config loads flow definitions from YAML documents and builds engines
// from them.
//
// A document declares one or more flows:
//
//	flows:
//	  - name: review
//	    start: intake
//	    states:
//	      - name: intake
//	        handler: intake
//	      - name: checks
//	        split:
//	          flows: [lint, scan]
//	          executor: pool
//	      - name: approve
//	        handler: approve
//	        pause: true
//	      - name: done
//	        event: COMPLETED
//	    transitions:
//	      - {from: intake, to: checks}
//	      - {from: checks, on: FAILED, to: intake}
//	      - {from: checks, to: approve}
//	      - {from: approve, on: APPROVED, to: done}
//	      - {from: approve, on: "REJECT*", end: true}
//
// Handlers, executors, aggregators and adapters are referenced by name and
// resolved from a Registry at build time. States without outgoing
// transitions end the flow.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a set of flow definitions.
type Document struct {
	Flows []FlowConfig `json:"flows" yaml:"flows"`
}

// FlowConfig defines one flow.
type FlowConfig struct {
	Name        string             `json:"name"        yaml:"name"`
	Start       string             `json:"start"       yaml:"start"`
	States      []StateConfig      `json:"states"      yaml:"states"`
	Transitions []TransitionConfig `json:"transitions" yaml:"transitions"`
}

// StateConfig defines a state. Exactly one of Handler, Event and Split is set.
// Event declares a pass-through state that always yields that event.
type StateConfig struct {
	Name    string       `json:"name"    yaml:"name"`
	Handler string       `json:"handler" yaml:"handler"`
	Event   string       `json:"event"   yaml:"event"`
	Split   *SplitConfig `json:"split"   yaml:"split"`
	Pause   bool         `json:"pause"   yaml:"pause"`
}

// SplitConfig defines a split state over other flows of the same document.
type SplitConfig struct {
	Flows      []string `json:"flows"      yaml:"flows"`
	Executor   string   `json:"executor"   yaml:"executor"`
	Aggregator string   `json:"aggregator" yaml:"aggregator"`
	Adapter    string   `json:"adapter"    yaml:"adapter"`
	Fallback   string   `json:"fallback"   yaml:"fallback"`
}

// TransitionConfig defines a transition. On is a trigger value; it is parsed
// into an event by the registry's parser, and an empty On matches anything.
type TransitionConfig struct {
	From string `json:"from" yaml:"from"`
	On   string `json:"on"   yaml:"on"`
	To   string `json:"to"   yaml:"to"`
	End  bool   `json:"end"  yaml:"end"`
}

// Load reads and validates a document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromFS reads and validates a document from a filesystem, such as an embed.FS.
func LoadFromFS(fsys fs.FS, path string) (*Document, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a YAML document. Unknown fields are errors.
func LoadFromBytes(data []byte) (*Document, error) {
	var doc Document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}

		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Flow returns the flow with the given name.
func (d *Document) Flow(name string) (FlowConfig, bool) {
	for _, f := range d.Flows {
		if f.Name == name {
			return f, true
		}
	}

	return FlowConfig{}, false
}

// State returns the state with the given name.
func (f FlowConfig) State(name string) (StateConfig, bool) {
	for _, s := range f.States {
		if s.Name == name {
			return s, true
		}
	}

	return StateConfig{}, false
}

func (s StateConfig) behaviors() int {
	count := 0

	if s.Handler != "" {
		count++
	}

	if s.Event != "" {
		count++
	}

	if s.Split != nil {
		count++
	}

	return count
}
