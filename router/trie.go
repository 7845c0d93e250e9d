// used by the router to match on paths

package router

import (
	"regexp"
	"strings"
)

type trieNode struct {
	// static children
	children map[string]*trieNode

	// parameter children in registration order; distinct validations get
	// their own branch so ":id(\\d+)" and ":name" can coexist
	params []*paramChild

	// trailing wildcard, eg. *file
	wildcard     *trieNode
	wildcardName string

	// route handler to call when matching ends here
	handler Handler
}

type paramChild struct {
	node       trieNode
	name       string
	validation *regexp.Regexp
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

func validationSource(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	return re.String()
}

// insert adds the parsed pattern to the trie. Structural duplicates are
// rejected by the router before it ever calls insert, so insert never
// overwrites an existing handler.
func (n *trieNode) insert(segments []segment, handler Handler) {
	currentNode := n

	for _, seg := range segments {
		switch seg.kind {
		case segmentParam:
			var child *paramChild
			for _, p := range currentNode.params {
				if p.name == seg.name && validationSource(p.validation) == validationSource(seg.validation) {
					child = p
					break
				}
			}
			if child == nil {
				child = &paramChild{
					node:       trieNode{children: make(map[string]*trieNode)},
					name:       seg.name,
					validation: seg.validation,
				}
				currentNode.params = append(currentNode.params, child)
			}
			currentNode = &child.node

		case segmentWildcard:
			if currentNode.wildcard == nil {
				currentNode.wildcard = newTrieNode()
				currentNode.wildcardName = seg.name
			}
			currentNode = currentNode.wildcard

		default:
			child, ok := currentNode.children[seg.name]
			if !ok {
				child = newTrieNode()
				currentNode.children[seg.name] = child
			}
			currentNode = child
		}
	}

	currentNode.handler = handler
}

// match resolves a path against the trie and collects parameter bindings.
// Static children are tried first, then parameter branches in registration
// order, then the wildcard; failed branches backtrack and unbind their
// parameters so the search is deterministic.
func (n *trieNode) match(segments []string, params map[string]string) Handler {
	if len(segments) == 0 {
		return n.handler
	}

	head := segments[0]

	if child, ok := n.children[head]; ok {
		if handler := child.match(segments[1:], params); handler != nil {
			return handler
		}
	}

	for _, p := range n.params {
		if p.validation != nil && !p.validation.MatchString(head) {
			continue
		}
		params[p.name] = head
		if handler := p.node.match(segments[1:], params); handler != nil {
			return handler
		}
		delete(params, p.name)
	}

	if n.wildcard != nil && n.wildcard.handler != nil {
		params[n.wildcardName] = strings.Join(segments, "/")
		return n.wildcard.handler
	}

	return nil
}

// splitPath breaks a request path into the segments the trie walks over.
// Leading, trailing and repeated slashes collapse away.
func splitPath(path string) []string {
	var segments []string
	for seg := range strings.SplitSeq(strings.Trim(path, "/"), "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
