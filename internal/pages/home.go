package pages

import (
	"context"
	"fmt"

	"github.com/v0xg/pagekit/internal/locator"
	"github.com/v0xg/pagekit/internal/page"
)

// HomeTitle is the expected title of the storefront landing page
const HomeTitle = "Online Shopping site in India: Shop Online for Mobiles, Books, Watches, Shoes and More - Amazon.in"

var (
	searchBox    = locator.XPath("//input[@id='twotabsearchtextbox']")
	searchButton = locator.ID("nav-search-submit-button")
)

// HomePage is the signed-in landing page. Get one from LoginPage.SignIn.
type HomePage struct {
	base *page.Base
}

// TitleMismatchError is returned by AssertTitle.
type TitleMismatchError struct {
	Want, Got string
}

func (e *TitleMismatchError) Error() string {
	return fmt.Sprintf("page title is %q, want %q", e.Got, e.Want)
}

// AssertTitle fails unless the current title equals want.
func (p *HomePage) AssertTitle(ctx context.Context, want string) error {
	got, err := p.base.Title(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return &TitleMismatchError{Want: want, Got: got}
	}
	return nil
}

func (p *HomePage) EnterSearchTerm(ctx context.Context, term string) error {
	if err := p.base.Clear(ctx, searchBox); err != nil {
		return err
	}
	return p.base.Type(ctx, searchBox, term)
}

func (p *HomePage) ClickSearchButton(ctx context.Context) error {
	return p.base.Click(ctx, searchButton)
}

// IsDisplayed reports whether the search box is shown.
func (p *HomePage) IsDisplayed(ctx context.Context) (bool, error) {
	return p.base.IsDisplayed(ctx, searchBox)
}

// Search types term and submits it
func (p *HomePage) Search(ctx context.Context, term string) error {
	if err := p.EnterSearchTerm(ctx, term); err != nil {
		return err
	}
	return p.ClickSearchButton(ctx)
}
