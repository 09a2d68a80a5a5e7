package filetree

// Tree maps a relative file path to its leaf record. The stored tree is
// always the result of the most recent accepted replacement; concurrent
// replacements are last-write-wins, no merge is attempted.
type Tree map[string]Node

// Node wraps the file record for one path, matching the wire shape
// {"file": {"contents": "..."}}.
type Node struct {
	File Contents `json:"file"`
}

// Contents holds file contents as text.
type Contents struct {
	Contents string `json:"contents"`
}
