// Package locator describes UI elements declaratively. A Ref never holds a
// live node; drivers resolve it again on every use.
package locator

import (
	"fmt"
	"strings"
)

// Strategy is how a selector string is interpreted.
type Strategy string

const (
	ByID              Strategy = "id"
	ByXPath           Strategy = "xpath"
	ByCSS             Strategy = "css selector"
	ByName            Strategy = "name"
	ByClassName       Strategy = "class name"
	ByTagName         Strategy = "tag name"
	ByLinkText        Strategy = "link text"
	ByPartialLinkText Strategy = "partial link text"
)

// Ref is an immutable element reference.
type Ref struct {
	strategy Strategy
	selector string
}

func ID(id string) Ref                { return Ref{ByID, id} }
func XPath(expr string) Ref           { return Ref{ByXPath, expr} }
func CSS(selector string) Ref         { return Ref{ByCSS, selector} }
func Name(name string) Ref            { return Ref{ByName, name} }
func ClassName(class string) Ref      { return Ref{ByClassName, class} }
func TagName(tag string) Ref          { return Ref{ByTagName, tag} }
func LinkText(text string) Ref        { return Ref{ByLinkText, text} }
func PartialLinkText(text string) Ref { return Ref{ByPartialLinkText, text} }

// Strategy returns the lookup strategy.
func (r Ref) Strategy() Strategy { return r.strategy }

// Selector returns the raw selector string.
func (r Ref) Selector() string { return r.selector }

// IsZero reports whether r was never initialized.
func (r Ref) IsZero() bool { return r.strategy == "" }

func (r Ref) String() string {
	return fmt.Sprintf("By.%s: %s", r.strategy, r.selector)
}

// QueryKind is the query language a driver must evaluate.
type QueryKind int

const (
	QueryCSS QueryKind = iota
	QueryXPath
)

// Query is a Ref lowered to CSS or XPath, the two languages every driver
// understands.
type Query struct {
	Kind QueryKind
	Expr string
}

// Query lowers the reference.
func (r Ref) Query() (Query, error) {
	if r.selector == "" {
		return Query{}, fmt.Errorf("empty selector for strategy %q", r.strategy)
	}
	switch r.strategy {
	case ByCSS:
		return Query{QueryCSS, r.selector}, nil
	case ByXPath:
		return Query{QueryXPath, r.selector}, nil
	case ByID:
		return Query{QueryCSS, fmt.Sprintf("[id=%s]", cssString(r.selector))}, nil
	case ByName:
		return Query{QueryCSS, fmt.Sprintf("[name=%s]", cssString(r.selector))}, nil
	case ByClassName:
		if strings.ContainsAny(r.selector, " \t\n") {
			return Query{}, fmt.Errorf("compound class names are not permitted: %q", r.selector)
		}
		return Query{QueryCSS, fmt.Sprintf("[class~=%s]", cssString(r.selector))}, nil
	case ByTagName:
		return Query{QueryCSS, r.selector}, nil
	case ByLinkText:
		return Query{QueryXPath, fmt.Sprintf("//a[normalize-space(.)=%s]", xpathString(r.selector))}, nil
	case ByPartialLinkText:
		return Query{QueryXPath, fmt.Sprintf("//a[contains(normalize-space(.), %s)]", xpathString(r.selector))}, nil
	default:
		return Query{}, fmt.Errorf("unknown locator strategy %q", r.strategy)
	}
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// xpathString quotes s as an XPath 1.0 literal. XPath has no escapes, so
// strings holding both quote kinds go through concat().
func xpathString(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
