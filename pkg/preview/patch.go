package preview

// Op is the DOM operation a patch performs on its target.
type Op string

const (
	// OpHTML replaces the children of the target element.
	OpHTML Op = "html"
	// OpReplace replaces the target element itself.
	OpReplace Op = "replace"
	// OpRemove deletes the target element.
	OpRemove Op = "remove"
	// OpAppend appends markup as the last children of the target element.
	OpAppend Op = "append"
	// OpAttr sets attribute Name of the target element to Value.
	OpAttr Op = "attr"
	// OpValue sets the current value of an input or textarea to Value.
	OpValue Op = "value"
)

// Patch is one targeted DOM update. It serializes to the JSON shape the
// editor script consumes.
type Patch struct {
	Target string `json:"target"`
	Op     Op     `json:"op"`
	HTML   string `json:"html,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
}

func setHTML(target, markup string) Patch {
	return Patch{Target: target, Op: OpHTML, HTML: markup}
}

func replace(target, markup string) Patch {
	return Patch{Target: target, Op: OpReplace, HTML: markup}
}

func remove(target string) Patch {
	return Patch{Target: target, Op: OpRemove}
}

func appendHTML(target, markup string) Patch {
	return Patch{Target: target, Op: OpAppend, HTML: markup}
}

func setAttr(target, name, value string) Patch {
	return Patch{Target: target, Op: OpAttr, Name: name, Value: value}
}

func setValuePatch(target, value string) Patch {
	return Patch{Target: target, Op: OpValue, Value: value}
}
