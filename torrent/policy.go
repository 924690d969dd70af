package torrent

import (
	"regexp"
	"strings"
)

type ActionKind uint8

const (
	// ActionSkip leaves the node as raw bytes.
	ActionSkip ActionKind = iota + 1
	// ActionHex maps bytes to and from lowercase hex text.
	ActionHex
	ActionUTF8
	// ActionNamed uses the codec carried in Action.Codec.
	ActionNamed
)

// Action is the conversion chosen for one leaf.
type Action struct {
	Kind  ActionKind
	Codec string
}

// PiecesPath locates the concatenated piece digests. It is never converted.
const PiecesPath = ".info.pieces"

// binaryOnly holds every path that stays raw bytes in both tree modes.
var binaryOnly = map[string]bool{
	PiecesPath: true,
}

var (
	hexField   = regexp.MustCompile(`(?i)(ed2k|filehash)$`)
	utf8Marker = regexp.MustCompile(`(?i)\.utf-?8(\.|$)`)
)

type rule struct {
	match  func(path, field, codec string) bool
	action func(codec string) Action
}

// policy is evaluated top to bottom. The first matching rule wins.
var policy = []rule{
	{
		match:  func(path, _, _ string) bool { return binaryOnly[path] },
		action: func(string) Action { return Action{Kind: ActionSkip} },
	},
	{
		match:  func(_, field, _ string) bool { return hexField.MatchString(field) },
		action: func(string) Action { return Action{Kind: ActionHex} },
	},
	{
		match: func(path, _, codec string) bool {
			return utf8Marker.MatchString(path) || utf8Name.MatchString(codec)
		},
		action: func(string) Action { return Action{Kind: ActionUTF8} },
	},
	{
		match:  func(_, _, _ string) bool { return true },
		action: func(codec string) Action { return Action{Kind: ActionNamed, Codec: codec} },
	},
}

// Resolve picks the conversion for the leaf at path under the given codec.
// Path is dot separated from the root, e.g. ".info.files.0.path.1".
func Resolve(path, codec string) Action {
	field := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		field = path[i+1:]
	}
	for _, r := range policy {
		if r.match(path, field, codec) {
			return r.action(codec)
		}
	}
	return Action{Kind: ActionNamed, Codec: codec}
}
