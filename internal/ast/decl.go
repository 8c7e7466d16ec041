package ast

// Decorator is `@name(args...)` or a bare `@name`. Args are kept as raw,
// comma-split (at bracket-depth zero) expression fragments so rewrites can
// read e.g. a `scope=` keyword argument without a full expression grammar.
type Decorator struct {
	BaseNode
	Name string // dotted name, e.g. "fixture", "pytest.mark.parametrize"
	Args []string
}

// Param is one function parameter. Star is "" for a plain parameter, "*"
// for *args, "**" for **kwargs.
type Param struct {
	Name          string
	DefaultRaw    string
	AnnotationRaw string
	Star          string
}

// FunctionDef is a free function or a method (IsMethod true and, by
// convention, Params[0].Name == "self" when parsed from xUnit source).
// It implements both TopLevel (free function) and ClassMember (method).
type FunctionDef struct {
	BaseNode
	Decorators       []*Decorator
	Name             string
	Params           []*Param
	ReturnAnnotation string
	Body             []Stmt
	IsMethod         bool
}

func (*FunctionDef) topLevelNode()    {}
func (*FunctionDef) classMemberNode() {}

// ClassDef is a class declaration with an ordered member list (fixture
// methods, test methods, lifecycle methods, helpers, and nested classes
// are all FunctionDef/ClassDef members; no separate nested-class-member
// type is needed).
type ClassDef struct {
	BaseNode
	Decorators []*Decorator
	Name       string
	Bases      []string
	Body       []ClassMember
}

func (*ClassDef) topLevelNode()    {}
func (*ClassDef) classMemberNode() {}
