package enginesim

import (
	"fmt"
	"sort"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
)

// Node is a scene-graph node in the sim. Fields are mutated only from the
// main thread, matching the host contract.
type Node struct {
	name     string
	nodeType string
	groups   []string
	props    map[string]any
	methods  map[string]func(args []any) (any, error)

	parent   *Node
	children []*Node
	sim      *Sim
	valid    bool

	// OnInput, when set, receives every event delivered to the viewport.
	OnInput func(ev engine.InputEvent)

	pressListeners []func()
}

// NewNode creates a detached node.
func NewNode(name, nodeType string) *Node {
	return &Node{
		name:     name,
		nodeType: nodeType,
		props:    make(map[string]any),
		methods:  make(map[string]func(args []any) (any, error)),
		valid:    true,
	}
}

// NewButton creates a "Button" node whose press listeners fire through
// engine.Pressable.
func NewButton(name string, onPressed func()) *Node {
	n := NewNode(name, "Button")
	if onPressed != nil {
		n.pressListeners = append(n.pressListeners, onPressed)
	}
	return n
}

// AddChild attaches child and returns it for chaining.
func (n *Node) AddChild(child *Node) *Node {
	child.parent = n
	child.attach(n.sim, n)
	n.children = append(n.children, child)
	return child
}

func (n *Node) attach(sim *Sim, parent *Node) {
	n.sim = sim
	n.parent = parent
	for _, c := range n.children {
		c.attach(sim, n)
	}
}

// Remove invalidates the node and its subtree. Outstanding references see
// Valid() == false afterwards.
func (n *Node) Remove() {
	if n.parent != nil {
		siblings := n.parent.children
		for i, c := range siblings {
			if c == n {
				n.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	n.invalidate()
}

func (n *Node) invalidate() {
	n.valid = false
	for _, c := range n.children {
		c.invalidate()
	}
}

// SetProp sets a property value.
func (n *Node) SetProp(name string, value any) *Node {
	n.props[name] = value
	return n
}

// AddToGroup adds the node to a named group.
func (n *Node) AddToGroup(group string) *Node {
	n.groups = append(n.groups, group)
	sort.Strings(n.groups)
	return n
}

// DefineMethod registers a callable method.
func (n *Node) DefineMethod(name string, fn func(args []any) (any, error)) *Node {
	n.methods[name] = fn
	return n
}

// AddPressListener appends a press listener (button nodes).
func (n *Node) AddPressListener(fn func()) {
	n.pressListeners = append(n.pressListeners, fn)
}

func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if c.name == name && c.valid {
			return c
		}
	}
	return nil
}

// --- engine.Node ---

func (n *Node) Name() string { return n.name }
func (n *Node) Type() string { return n.nodeType }
func (n *Node) Valid() bool  { return n.valid }

func (n *Node) Path() string {
	if n.parent == nil {
		return "/root/" + n.name
	}
	return n.parent.Path() + "/" + n.name
}

func (n *Node) Children() []engine.Node {
	out := make([]engine.Node, 0, len(n.children))
	for _, c := range n.children {
		if c.valid {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) Groups() []string {
	out := make([]string, len(n.groups))
	copy(out, n.groups)
	return out
}

func (n *Node) Get(property string) (any, bool) {
	v, ok := n.props[property]
	return v, ok
}

func (n *Node) Set(property string, value any) bool {
	if _, ok := n.props[property]; !ok {
		return false
	}
	n.props[property] = value
	return true
}

func (n *Node) Call(method string, args []any) (any, bool, error) {
	fn, ok := n.methods[method]
	if !ok {
		return nil, false, nil
	}
	result, err := fn(args)
	return result, true, err
}

// Press implements engine.Pressable for button-typed nodes.
func (n *Node) Press() {
	for _, fn := range n.pressListeners {
		fn()
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.name, n.nodeType)
}
