package visualizer

// Options configures the diagram.
type Options struct {
	// ShowTriggers labels transitions with their trigger descriptors.
	ShowTriggers bool

	// ShowBranches lists the sub-flows of split states in their node.
	ShowBranches bool

	// Direction is "TB" (top to bottom) or "LR" (left to right).
	Direction string

	// HighlightPath highlights the given states, such as the path an execution took.
	HighlightPath []string

	// Fenced wraps the diagram in a ```mermaid code block.
	Fenced bool
}

// DefaultOptions returns the options used by Mermaid callers that do not care.
func DefaultOptions() Options {
	return Options{
		ShowTriggers: true,
		ShowBranches: true,
		Direction:    "TB",
		Fenced:       true,
	}
}

func (o Options) WithShowTriggers(show bool) Options {
	o.ShowTriggers = show

	return o
}

func (o Options) WithShowBranches(show bool) Options {
	o.ShowBranches = show

	return o
}

func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}

func (o Options) WithFenced(fenced bool) Options {
	o.Fenced = fenced

	return o
}
