package scanner

type TokenType int

const (
	StartCommentTag TokenType = iota
	Comment
	EndCommentTag
	StartTagOpen
	StartTagClose
	StartTagSelfClose
	StartTag
	StartInterpolation
	EndTagOpen
	EndTagClose
	EndTag
	EndInterpolation
	DelimiterAssign
	AttributeName
	AttributeValue
	StartDoctypeTag
	Doctype
	EndDoctypeTag
	Content
	InterpolationContent
	Whitespace
	Unknown
	Script
	Styles
	EOS
)

var tokenNames = [...]string{
	"StartCommentTag", "Comment", "EndCommentTag", "StartTagOpen", "StartTagClose", "StartTagSelfClose",
	"StartTag", "StartInterpolation", "EndTagOpen", "EndTagClose", "EndTag", "EndInterpolation",
	"DelimiterAssign", "AttributeName", "AttributeValue", "StartDoctypeTag", "Doctype", "EndDoctypeTag",
	"Content", "InterpolationContent", "Whitespace", "Unknown", "Script", "Styles", "EOS",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenNames) {
		return "TokenType(?)"
	}
	return tokenNames[t]
}

type State int

const (
	WithinContent State = iota
	WithinInterpolation
	AfterOpeningStartTag
	AfterOpeningEndTag
	WithinDoctype
	WithinTag
	WithinEndTag
	WithinComment
	WithinScriptContent
	WithinStyleContent
	AfterAttributeName
	BeforeAttributeValue
)

var stateNames = [...]string{
	"WithinContent", "WithinInterpolation", "AfterOpeningStartTag", "AfterOpeningEndTag", "WithinDoctype",
	"WithinTag", "WithinEndTag", "WithinComment", "WithinScriptContent", "WithinStyleContent",
	"AfterAttributeName", "BeforeAttributeValue",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}
