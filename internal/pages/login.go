// Package pages holds the page objects of the storefront under test. Pages
// share one *page.Base and model navigation order: a HomePage only exists
// after a LoginPage has signed in.
package pages

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/v0xg/pagekit/internal/locator"
	"github.com/v0xg/pagekit/internal/page"
)

var (
	emailInput      = locator.XPath("//input[@id ='ap_email']")
	continueButton  = locator.ID("continue")
	passwordInput   = locator.ID("ap_password")
	signInButton    = locator.ID("signInSubmit")
	welcomeMessage  = locator.ID("nav-link-accountList-nav-line-1")
	authErrorBanner = locator.ID("auth-error-message-box")
)

var errWelcomeMissing = errors.New("welcome message not displayed")

// LoginPage is the two-step sign-in form
type LoginPage struct {
	base *page.Base
}

// NewLoginPage returns the sign-in page on base's session.
func NewLoginPage(base *page.Base) *LoginPage {
	return &LoginPage{base: base}
}

// Open navigates to the sign-in URL
func (p *LoginPage) Open(ctx context.Context, url string) error {
	return p.base.Navigate(ctx, url)
}

func (p *LoginPage) EnterEmail(ctx context.Context, email string) error {
	return p.base.Type(ctx, emailInput, email)
}

func (p *LoginPage) ClickContinue(ctx context.Context) error {
	return p.base.Click(ctx, continueButton)
}

func (p *LoginPage) EnterPassword(ctx context.Context, password string) error {
	return p.base.Type(ctx, passwordInput, password)
}

func (p *LoginPage) ClickSignInSubmit(ctx context.Context) error {
	return p.base.Click(ctx, signInButton)
}

// IsWelcomeMessageDisplayed reports whether the signed-in greeting is shown.
func (p *LoginPage) IsWelcomeMessageDisplayed(ctx context.Context) (bool, error) {
	return p.base.IsDisplayed(ctx, welcomeMessage)
}

// IsErrorMessageDisplayed reports whether sign-in was rejected.
func (p *LoginPage) IsErrorMessageDisplayed(ctx context.Context) (bool, error) {
	return p.base.IsDisplayed(ctx, authErrorBanner)
}

// SignIn runs the whole form and returns the landing page. It fails when the
// welcome message does not appear afterwards.
func (p *LoginPage) SignIn(ctx context.Context, email, password string) (*HomePage, error) {
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return p.EnterEmail(ctx, email) },
		p.ClickContinue,
		func(ctx context.Context) error { return p.EnterPassword(ctx, password) },
		p.ClickSignInSubmit,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, fmt.Errorf("sign in: %w", err)
		}
	}

	home, err := p.Home(ctx)
	if err != nil {
		return nil, fmt.Errorf("sign in as %s: %w", email, err)
	}
	p.base.Logger().Info("Signed in", zap.String("email", email))
	return home, nil
}

// Home returns the landing page once the form has been submitted by hand. It
// fails while the welcome message is not displayed.
func (p *LoginPage) Home(ctx context.Context) (*HomePage, error) {
	ok, err := p.IsWelcomeMessageDisplayed(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errWelcomeMissing
	}
	return &HomePage{base: p.base}, nil
}
