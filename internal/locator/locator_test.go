package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		ref  Ref
		kind QueryKind
		expr string
	}{
		{"id", ID("ap_email"), QueryCSS, `[id="ap_email"]`},
		{"name", Name("q"), QueryCSS, `[name="q"]`},
		{"class", ClassName("btn"), QueryCSS, `[class~="btn"]`},
		{"tag", TagName("select"), QueryCSS, `select`},
		{"css", CSS("form > input"), QueryCSS, `form > input`},
		{"xpath", XPath("//input[@id ='ap_email']"), QueryXPath, `//input[@id ='ap_email']`},
		{"link text", LinkText("Sign in"), QueryXPath, `//a[normalize-space(.)="Sign in"]`},
		{"partial link text", PartialLinkText("Sign"), QueryXPath, `//a[contains(normalize-space(.), "Sign")]`},
		{"id with quote", ID(`a"b`), QueryCSS, `[id="a\"b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.ref.Query()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, q.Kind)
			assert.Equal(t, tt.expr, q.Expr)
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	_, err := ID("").Query()
	assert.Error(t, err)

	_, err = ClassName("a b").Query()
	assert.Error(t, err)

	_, err = Ref{}.Query()
	assert.Error(t, err)
}

func TestXPathString(t *testing.T) {
	assert.Equal(t, `"plain"`, xpathString("plain"))
	assert.Equal(t, `'say "hi"'`, xpathString(`say "hi"`))
	assert.Equal(t, `concat("it's ", '"', "quoted", '"')`, xpathString(`it's "quoted"`))
}

func TestRef_String(t *testing.T) {
	assert.Equal(t, "By.id: continue", ID("continue").String())
	assert.True(t, Ref{}.IsZero())
	assert.False(t, ID("x").IsZero())
}
