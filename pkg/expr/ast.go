package expr

// node is the interface for all embedded-language AST nodes.
// The sealed marker restricts implementations to this package.
type node interface {
	exprNode()
}

// literalNode is a number, string, or other constant.
type literalNode struct {
	Value any
}

// nameNode is a variable reference resolved against the active Context.
type nameNode struct {
	Name string
}

// listNode is a list literal.
type listNode struct {
	Items []node
}

// mapEntry is one key/value pair of a map literal.
type mapEntry struct {
	Key   node
	Value node
}

// mapNode is a map literal.
type mapNode struct {
	Entries []mapEntry
}

// indexNode is a subscript access, target[index].
type indexNode struct {
	Target node
	Index  node
}

// attrNode is dotted attribute sugar: a.b resolves to a["b"].
type attrNode struct {
	Target node
	Name   string
}

// kwArg is a keyword argument in a builtin call.
type kwArg struct {
	Name  string
	Value node
}

// callNode invokes a function from the builtin table.
type callNode struct {
	Name   string
	Args   []node
	KwArgs []kwArg
}

// unaryNode applies a prefix operator ("-" or "not").
type unaryNode struct {
	Op      string
	Operand node
}

// binaryNode applies an infix operator. "and"/"or" short-circuit.
type binaryNode struct {
	Op    string
	Left  node
	Right node
}

func (literalNode) exprNode() {}
func (nameNode) exprNode()    {}
func (listNode) exprNode()    {}
func (mapNode) exprNode()     {}
func (indexNode) exprNode()   {}
func (attrNode) exprNode()    {}
func (callNode) exprNode()    {}
func (unaryNode) exprNode()   {}
func (binaryNode) exprNode()  {}
