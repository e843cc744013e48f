package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var allCodes = []Code{
	ElementNotFound,
	ElementNotInteractable,
	Session,
	ArtifactCapture,
	Config,
	InvalidArgument,
	Internal,
}

func testCodeOf_SurvivesWrapping(t *rapid.T) {
	code := rapid.SampledFrom(allCodes).Draw(t, "code")
	message := rapid.StringMatching(`[a-zA-Z0-9 _:\-]{1,60}`).Draw(t, "message")
	depth := rapid.IntRange(0, 4).Draw(t, "depth")

	err := New(code, message)
	for i := 0; i < depth; i++ {
		err = fmt.Errorf("layer %d: %w", i, err)
	}

	if got := CodeOf(err); got != code {
		t.Fatalf("CodeOf mismatch: got=%q want=%q", got, code)
	}
	if !Is(err, code) {
		t.Fatalf("Is(%q) = false after %d wraps", code, depth)
	}
}

func TestCodeOf_SurvivesWrapping(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCodeOf_SurvivesWrapping)
}

func TestCodeOf_UntypedDefaultsToInternal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Internal, CodeOf(errors.New("boom")))
	assert.Equal(t, Internal, CodeOf(nil))
}

func TestIs_FindsInnerCode(t *testing.T) {
	t.Parallel()
	inner := New(Session, "browser crashed")
	outer := Wrap(ElementNotInteractable, "click failed", inner)

	assert.Equal(t, ElementNotInteractable, CodeOf(outer))
	assert.True(t, Is(outer, Session))
	assert.True(t, Is(outer, ElementNotInteractable))
	assert.False(t, Is(outer, ElementNotFound))
}

func TestError_Message(t *testing.T) {
	t.Parallel()
	cause := errors.New("timeout")
	assert.Equal(t, "element #x not found: timeout", Wrap(ElementNotFound, "element #x not found", cause).Error())
	assert.Equal(t, "timeout", Wrap(ElementNotFound, "", cause).Error())
	assert.Equal(t, "session", (&Error{Code: Session}).Error())
	assert.True(t, errors.Is(Wrap(Session, "x", cause), cause))
}
