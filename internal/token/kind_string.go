// Copyright 2024 The TypedLua Authors
// SPDX-License-Identifier: MIT

package token

// String returns the canonical spelling of k, matching the `//`-comment
// annotations on the Kind constants. Hand-maintained in lieu of running
// `stringer` (the pattern the teacher's token.go documents via its
// go:generate directive).
func (k Kind) String() string {
	switch k {
	case Error:
		return "<error>"
	case EOF:
		return "<eof>"
	case Identifier:
		return "<identifier>"
	case StringLiteral:
		return "<string>"
	case NumberLiteral:
		return "<number>"
	case IntegerLiteral:
		return "<integer>"
	case TemplateString:
		return "<template string>"
	case TemplateExprStart:
		return "${"
	case TemplateExprEnd:
		return "}"
	case And:
		return "and"
	case Break:
		return "break"
	case Class:
		return "class"
	case Const:
		return "const"
	case Continue:
		return "continue"
	case Do:
		return "do"
	case Else:
		return "else"
	case Elseif:
		return "elseif"
	case End:
		return "end"
	case Enum:
		return "enum"
	case Export:
		return "export"
	case Extends:
		return "extends"
	case False:
		return "false"
	case Finally:
		return "finally"
	case For:
		return "for"
	case Function:
		return "function"
	case If:
		return "if"
	case Implements:
		return "implements"
	case Import:
		return "import"
	case In:
		return "in"
	case Interface:
		return "interface"
	case Is:
		return "is"
	case Local:
		return "local"
	case Match:
		return "match"
	case New:
		return "new"
	case Nil:
		return "nil"
	case Not:
		return "not"
	case Or:
		return "or"
	case Private:
		return "private"
	case Protected:
		return "protected"
	case Public:
		return "public"
	case Readonly:
		return "readonly"
	case Return:
		return "return"
	case Self:
		return "self"
	case Static:
		return "static"
	case Super:
		return "super"
	case Then:
		return "then"
	case Throw:
		return "throw"
	case True:
		return "true"
	case Try:
		return "try"
	case Type:
		return "type"
	case Catch:
		return "catch"
	case While:
		return "while"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Star:
		return "*"
	case Slash:
		return "/"
	case DoubleSlash:
		return "//"
	case Percent:
		return "%"
	case Caret:
		return "^"
	case Hash:
		return "#"
	case Ampersand:
		return "&"
	case Tilde:
		return "~"
	case Pipe:
		return "|"
	case ShiftLeft:
		return "<<"
	case ShiftRight:
		return ">>"
	case Equal:
		return "=="
	case NotEqual:
		return "~="
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Less:
		return "<"
	case Greater:
		return ">"
	case Assign:
		return "="
	case LParen:
		return "("
	case RParen:
		return ")"
	case LBrace:
		return "{"
	case RBrace:
		return "}"
	case LBracket:
		return "["
	case RBracket:
		return "]"
	case DoubleColon:
		return "::"
	case Semicolon:
		return ";"
	case Colon:
		return ":"
	case Comma:
		return ","
	case Dot:
		return "."
	case DotDot:
		return ".."
	case Ellipsis:
		return "..."
	case Question:
		return "?"
	case QuestionQuestion:
		return "??"
	case QuestionDot:
		return "?."
	case Bang:
		return "!"
	case BangBang:
		return "!!"
	case PipeArrow:
		return "|>"
	case FatArrow:
		return "=>"
	case Backslash:
		return "\\"
	default:
		return "<unknown token>"
	}
}
