package pattern

import (
	"fmt"
	"strings"
)

// Kind 令牌类型
type Kind int

const (
	// KindWildcard 任意令牌
	KindWildcard Kind = iota
	// KindLiteral 必须完全相等
	KindLiteral
	// KindCapture 捕获到变量
	KindCapture
	// KindAppend 追加到变量已有值之后
	KindAppend
)

// Token 模式中的单个位置
type Token struct {
	Kind Kind
	// Text 字面量文本，或捕获/追加的变量名
	Text string
}

// Any 通配令牌
func Any() Token { return Token{Kind: KindWildcard} }

// Lit 字面量令牌
func Lit(s string) Token { return Token{Kind: KindLiteral, Text: s} }

// Cap 捕获令牌
func Cap(name string) Token { return Token{Kind: KindCapture, Text: name} }

// App 追加捕获令牌
func App(name string) Token { return Token{Kind: KindAppend, Text: name} }

// Binds 是否会绑定变量
func (t Token) Binds() bool {
	return t.Kind == KindCapture || t.Kind == KindAppend
}

// String 返回配置文件中使用的记法
func (t Token) String() string {
	switch t.Kind {
	case KindWildcard:
		return "."
	case KindCapture:
		return "%" + t.Text
	case KindAppend:
		return "&" + t.Text
	default:
		return t.Text
	}
}

// ParseToken 解析配置记法："." 通配，"%name" 捕获，"&name" 追加，其余按字面量处理
func ParseToken(s string) (Token, error) {
	switch {
	case s == "":
		return Token{}, fmt.Errorf("empty token")
	case s == ".":
		return Any(), nil
	case strings.HasPrefix(s, "%"):
		if len(s) == 1 {
			return Token{}, fmt.Errorf("capture token %q has no variable name", s)
		}
		return Cap(s[1:]), nil
	case strings.HasPrefix(s, "&"):
		if len(s) == 1 {
			return Token{}, fmt.Errorf("append token %q has no variable name", s)
		}
		return App(s[1:]), nil
	default:
		return Lit(s), nil
	}
}

// ParseTokens 逐个解析记法列表
func ParseTokens(items []string) ([]Token, error) {
	out := make([]Token, 0, len(items))
	for i, it := range items {
		tok, err := ParseToken(it)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		out = append(out, tok)
	}
	return out, nil
}

// MustParse 解析以空白分隔的记法串，出错时 panic，仅用于内置表
func MustParse(s string) []Token {
	toks, err := ParseTokens(strings.Fields(s))
	if err != nil {
		panic(fmt.Sprintf("pattern %q: %v", s, err))
	}
	return toks
}
